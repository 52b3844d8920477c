package push

// Event types sent over the push socket.
const (
	MessageCreated       = "message.created"
	ThreadCreated        = "thread.created"
	NotificationCreated  = "notification.created"
	FriendRequestUpdated = "friend_request.updated"
	PollUpdated          = "poll.updated"
	ScheduleUpdated      = "schedule.updated"
	GroupUpdated         = "group.updated"
)

// Event tells the client that something it polls for has changed.
type Event struct {
	Type     string `json:"type"`
	ThreadID string `json:"threadId,omitempty"`
	TargetID string `json:"targetId,omitempty"`
}
