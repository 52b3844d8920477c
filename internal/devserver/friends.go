package devserver

import (
	"sort"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

const maxSuggestions = 10

// Suggestions lists users the viewer could befriend, classmates first.
func (b *Backend) Suggestions(viewerID string) []models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := map[string]bool{}
	for _, r := range b.requests {
		if r.status != models.RequestPending {
			continue
		}
		if r.from == viewerID {
			pending[r.to] = true
		}
		if r.to == viewerID {
			pending[r.from] = true
		}
	}

	school := ""
	if acc, ok := b.users[viewerID]; ok {
		school = acc.School
	}

	out := []models.User{}
	for id := range b.users {
		if id == viewerID || b.areFriends(viewerID, id) || pending[id] {
			continue
		}
		out = append(out, b.publicUser(id))
	}
	sortUsers(out)
	sort.SliceStable(out, func(i, j int) bool {
		return school != "" && out[i].School == school && out[j].School != school
	})
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// SendFriendRequest asks toID to become fromID's friend.
func (b *Backend) SendFriendRequest(fromID, toID string) (models.FriendRequest, error) {
	if fromID == toID {
		return models.FriendRequest{}, invalid("You cannot send a friend request to yourself")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[toID]; !ok {
		return models.FriendRequest{}, ErrNotFound
	}
	if b.areFriends(fromID, toID) {
		return models.FriendRequest{}, invalid("You are already friends")
	}
	for _, r := range b.requests {
		if r.status != models.RequestPending {
			continue
		}
		if (r.from == fromID && r.to == toID) || (r.from == toID && r.to == fromID) {
			return models.FriendRequest{}, invalid("A friend request is already pending")
		}
	}

	r := &friendRequest{
		id:        newID(),
		from:      fromID,
		to:        toID,
		status:    models.RequestPending,
		createdAt: b.now(),
	}
	b.requests[r.id] = r

	sender := b.publicUser(fromID)
	b.notify(toID, models.Notification{
		Type:     models.NotifyFriendRequest,
		Title:    sender.Username + " sent you a friend request",
		TargetID: fromID,
	})
	b.publisher.Publish([]string{toID}, push.Event{Type: push.FriendRequestUpdated, TargetID: r.id})
	return b.requestView(r), nil
}

func (b *Backend) requestView(r *friendRequest) models.FriendRequest {
	return models.FriendRequest{
		ID:          r.id,
		Requester:   b.publicUser(r.from),
		RecipientID: r.to,
		Status:      r.status,
		CreatedAt:   r.createdAt,
	}
}

// FriendRequests lists pending requests addressed to userID, oldest first.
func (b *Backend) FriendRequests(userID string) []models.FriendRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.FriendRequest{}
	for _, r := range b.requests {
		if r.to == userID && r.status == models.RequestPending {
			out = append(out, b.requestView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RespondToRequest accepts or rejects a pending request addressed to userID.
func (b *Backend) RespondToRequest(userID, requestID string, accept bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.requests[requestID]
	if !ok || r.to != userID {
		return ErrNotFound
	}
	if r.status != models.RequestPending {
		return invalid("Friend request was already answered")
	}

	if !accept {
		r.status = models.RequestRejected
		b.publisher.Publish([]string{userID}, push.Event{Type: push.FriendRequestUpdated, TargetID: r.id})
		return nil
	}

	r.status = models.RequestAccepted
	b.befriend(r.from, r.to)

	recipient := b.publicUser(r.to)
	b.notify(r.from, models.Notification{
		Type:     models.NotifyFriendAccepted,
		Title:    recipient.Username + " accepted your friend request",
		TargetID: r.to,
	})
	b.publisher.Publish([]string{r.from, r.to}, push.Event{Type: push.FriendRequestUpdated, TargetID: r.id})
	return nil
}

func (b *Backend) befriend(a, c string) {
	if b.friends[a] == nil {
		b.friends[a] = map[string]bool{}
	}
	if b.friends[c] == nil {
		b.friends[c] = map[string]bool{}
	}
	b.friends[a][c] = true
	b.friends[c][a] = true
}

func (b *Backend) Friends(userID string) []models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.User{}
	for id := range b.friends[userID] {
		out = append(out, b.publicUser(id))
	}
	sortUsers(out)
	return out
}
