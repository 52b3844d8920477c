package devserver

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

type published struct {
	users []string
	event push.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(userIDs []string, ev push.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{users: append([]string(nil), userIDs...), event: ev})
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.events {
		out = append(out, p.event.Type)
	}
	return out
}

func newTestBackend(t *testing.T) (*Backend, *recordingPublisher) {
	t.Helper()
	b := NewBackend("http://files.test", nil)
	b.SetHashCost(bcrypt.MinCost)
	pub := &recordingPublisher{}
	b.SetPublisher(pub)
	return b, pub
}

func register(t *testing.T, b *Backend, name string) models.User {
	t.Helper()
	u, err := b.Register(models.RegisterInput{
		Username: name,
		Email:    name + "@school.test",
		Password: "password123",
		School:   "Lyceum 1",
	})
	require.NoError(t, err)
	return u
}

func befriend(t *testing.T, b *Backend, a, c models.User) {
	t.Helper()
	req, err := b.SendFriendRequest(a.ID, c.ID)
	require.NoError(t, err)
	require.NoError(t, b.RespondToRequest(c.ID, req.ID, true))
}

func isValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	b, _ := newTestBackend(t)
	u := register(t, b, "aida")
	assert.Equal(t, "aida@school.test", u.Email)

	_, err := b.Register(models.RegisterInput{Username: "other", Email: "AIDA@school.test", Password: "password123"})
	assert.True(t, isValidation(err), "email is case-insensitive")

	_, err = b.Register(models.RegisterInput{Username: "short", Email: "s@school.test", Password: "123"})
	assert.True(t, isValidation(err))

	got, err := b.Authenticate("aida@school.test", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = b.Authenticate("aida@school.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = b.Authenticate("nobody@school.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPublicProfilesHideEmail(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")

	other, err := b.GetUser(a.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Email)
	assert.True(t, other.Online)

	self, err := b.GetUser(a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, self.Email)
}

func TestFriendRequestFlow(t *testing.T) {
	b, pub := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")

	_, err := b.SendFriendRequest(a.ID, a.ID)
	assert.True(t, isValidation(err))

	req, err := b.SendFriendRequest(a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, req.Requester.ID)

	_, err = b.SendFriendRequest(c.ID, a.ID)
	assert.True(t, isValidation(err), "one pending request per pair")

	assert.ErrorIs(t, b.RespondToRequest(a.ID, req.ID, true), ErrNotFound, "only the recipient answers")

	require.Len(t, b.FriendRequests(c.ID), 1)
	require.NoError(t, b.RespondToRequest(c.ID, req.ID, true))
	assert.Empty(t, b.FriendRequests(c.ID))
	assert.Len(t, b.Friends(a.ID), 1)
	assert.Len(t, b.Friends(c.ID), 1)

	assert.True(t, isValidation(b.RespondToRequest(c.ID, req.ID, true)))
	assert.Contains(t, pub.types(), push.FriendRequestUpdated)

	notes := b.Notifications(a.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyFriendAccepted, notes[0].Type)
}

func TestSuggestionsSkipFriendsAndPending(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	d := register(t, b, "dana")
	e := register(t, b, "erlan")

	befriend(t, b, a, c)
	_, err := b.SendFriendRequest(d.ID, a.ID)
	require.NoError(t, err)

	got := b.Suggestions(a.ID)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
}

func TestDirectThreadUniquePerPair(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")

	const callers = 32
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a.ID, c.ID
			if i%2 == 1 {
				from, to = c.ID, a.ID
			}
			th, err := b.GetOrCreateDirect(from, to)
			if assert.NoError(t, err) {
				ids[i] = th.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	b.mu.Lock()
	assert.Len(t, b.threads, 1)
	b.mu.Unlock()

	_, err := b.GetOrCreateDirect(a.ID, a.ID)
	assert.True(t, isValidation(err))
	_, err = b.GetOrCreateDirect(a.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThreadTypeFollowsFriendship(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")

	th, err := b.GetOrCreateDirect(a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ThreadStranger, th.Type)

	assert.Len(t, b.Threads(a.ID, models.ThreadStranger), 1, "the opener sees the empty thread")
	assert.Empty(t, b.Threads(c.ID, models.ThreadStranger), "the other party sees it after the first message")

	_, err = b.SendMessage(a.ID, th.ID, NewMessage{Content: "hi"})
	require.NoError(t, err)
	assert.Len(t, b.Threads(c.ID, models.ThreadStranger), 1)

	befriend(t, b, a, c)
	assert.Empty(t, b.Threads(a.ID, models.ThreadStranger))
	friends := b.Threads(a.ID, models.ThreadFriend)
	require.Len(t, friends, 1)
	assert.Equal(t, th.ID, friends[0].ID)
}

func TestMessagesAttachmentsAndUnread(t *testing.T) {
	b, pub := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	th, err := b.GetOrCreateDirect(a.ID, c.ID)
	require.NoError(t, err)

	_, err = b.SendMessage(a.ID, th.ID, NewMessage{})
	assert.True(t, isValidation(err))

	msg, err := b.SendMessage(a.ID, th.ID, NewMessage{
		Content:  "notes",
		ClientID: "c-1",
		Files:    []Upload{{Name: "notes.txt", Data: []byte("hello")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", msg.ClientID)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "http://files.test/"+msg.Attachments[0].ID, msg.Attachments[0].URL)

	f, err := b.File(msg.Attachments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(f.Data))

	list := b.Threads(c.ID, models.ThreadStranger)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "notes", list[0].LastMessage.Content)

	d, err := b.GetThread(c.ID, th.ID)
	require.NoError(t, err)
	require.Len(t, d.Messages, 1)
	require.NotNil(t, d.Messages[0].Sender)
	assert.Equal(t, "aida", d.Messages[0].Sender.Username)
	assert.Equal(t, 0, b.Threads(c.ID, models.ThreadStranger)[0].UnreadCount)

	atts, err := b.Attachments(c.ID, th.ID)
	require.NoError(t, err)
	assert.Len(t, atts, 1)

	assert.ErrorIs(t, b.DeleteMessage(c.ID, msg.ID), ErrNotFound, "only the sender deletes")
	require.NoError(t, b.DeleteMessage(a.ID, msg.ID))
	atts, err = b.Attachments(a.ID, th.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)
	_, err = b.File(msg.Attachments[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, pub.types(), push.MessageCreated)
}

func TestNonMembersGetNotFound(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	x := register(t, b, "xeniya")
	th, err := b.GetOrCreateDirect(a.ID, c.ID)
	require.NoError(t, err)

	_, err = b.GetThread(x.ID, th.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.SendMessage(x.ID, th.ID, NewMessage{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.ThreadPolls(x.ID, th.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroups(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	d := register(t, b, "dana")

	_, err := b.CreateGroup(a.ID, models.CreateGroupInput{Name: " "})
	assert.True(t, isValidation(err))
	_, err = b.CreateGroup(a.ID, models.CreateGroupInput{Name: "Physics", MemberIDs: []string{"ghost"}})
	assert.True(t, isValidation(err))

	g, err := b.CreateGroup(a.ID, models.CreateGroupInput{Name: "Physics", MemberIDs: []string{c.ID, c.ID}})
	require.NoError(t, err)
	assert.Equal(t, models.ThreadGroup, g.Type)
	assert.Len(t, g.Members, 2)
	assert.Len(t, b.Threads(c.ID, models.ThreadGroup), 1)
	assert.Equal(t, models.NotifyGroupInvite, b.Notifications(c.ID)[0].Type)

	require.NoError(t, b.JoinGroup(d.ID, g.ID))
	assert.True(t, isValidation(b.JoinGroup(d.ID, g.ID)))
	require.NoError(t, b.LeaveGroup(d.ID, g.ID))
	assert.ErrorIs(t, b.LeaveGroup(d.ID, g.ID), ErrNotFound)
	assert.Empty(t, b.Threads(d.ID, models.ThreadGroup))
}

func TestPollVoting(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	g, err := b.CreateGroup(a.ID, models.CreateGroupInput{Name: "Math", MemberIDs: []string{c.ID}})
	require.NoError(t, err)

	_, err = b.CreatePoll(a.ID, models.CreatePollInput{ThreadID: g.ID, Question: "When?", Options: []string{"Mon"}})
	assert.True(t, isValidation(err))

	p, err := b.CreatePoll(a.ID, models.CreatePollInput{ThreadID: g.ID, Question: "When?", Options: []string{"Mon", "Tue", " "}})
	require.NoError(t, err)
	require.Len(t, p.Options, 2)
	mon, tue := p.Options[0].ID, p.Options[1].ID

	p, err = b.Vote(c.ID, p.ID, mon)
	require.NoError(t, err)
	p, err = b.Vote(c.ID, p.ID, tue)
	require.NoError(t, err)
	assert.Equal(t, []string{tue}, p.VotedBy(c.ID), "single choice replaces the earlier vote")

	_, err = b.Vote(c.ID, p.ID, "nope")
	assert.True(t, isValidation(err))
	got, err := b.GetPoll(c.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tue}, got.VotedBy(c.ID), "a rejected vote changes nothing")

	p, err = b.RemoveVote(c.ID, p.ID, tue)
	require.NoError(t, err)
	assert.Empty(t, p.VotedBy(c.ID))

	polls, err := b.ThreadPolls(c.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, polls, 1)
}

func TestClosedPollRejectsVotes(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	g, err := b.CreateGroup(a.ID, models.CreateGroupInput{Name: "Math"})
	require.NoError(t, err)

	closes := time.Now().Add(time.Hour)
	p, err := b.CreatePoll(a.ID, models.CreatePollInput{ThreadID: g.ID, Question: "Q", Options: []string{"x", "y"}, ClosesAt: &closes})
	require.NoError(t, err)

	b.now = func() time.Time { return closes.Add(time.Second) }
	_, err = b.Vote(a.ID, p.ID, p.Options[0].ID)
	require.Error(t, err)
	assert.True(t, isValidation(err))
	assert.Equal(t, "Poll is closed", err.Error())
}

func TestSchedules(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	g, err := b.CreateGroup(a.ID, models.CreateGroupInput{Name: "Chem", MemberIDs: []string{c.ID}})
	require.NoError(t, err)

	start := time.Now().Add(time.Hour)
	_, err = b.CreateSchedule(a.ID, models.CreateScheduleInput{Title: "Lab", StartsAt: start, EndsAt: start})
	assert.True(t, isValidation(err))

	s, err := b.CreateSchedule(a.ID, models.CreateScheduleInput{ThreadID: g.ID, Title: "Lab", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, s.Participants)
	assert.Len(t, b.MySchedules(a.ID), 1)
	assert.Empty(t, b.MySchedules(c.ID))

	s, err = b.JoinSchedule(c.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, s.HasParticipant(c.ID))
	assert.Len(t, b.MySchedules(c.ID), 1)

	s, err = b.LeaveSchedule(c.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, s.HasParticipant(c.ID))

	list, err := b.ThreadSchedules(c.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotificationsMarkRead(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")
	d := register(t, b, "dana")
	_, err := b.SendFriendRequest(c.ID, a.ID)
	require.NoError(t, err)
	_, err = b.SendFriendRequest(d.ID, a.ID)
	require.NoError(t, err)

	notes := b.Notifications(a.ID)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[0].Title, "dana", "newest first")

	require.NoError(t, b.MarkNotificationRead(a.ID, notes[0].ID))
	assert.ErrorIs(t, b.MarkNotificationRead(c.ID, notes[1].ID), ErrNotFound)

	b.MarkAllNotificationsRead(a.ID)
	for _, n := range b.Notifications(a.ID) {
		assert.True(t, n.Read)
	}
}

func TestReport(t *testing.T) {
	b, _ := newTestBackend(t)
	a := register(t, b, "aida")
	c := register(t, b, "bolat")

	_, err := b.Report(a.ID, c.ID, models.Report{})
	assert.True(t, isValidation(err))
	_, err = b.Report(a.ID, a.ID, models.Report{Reason: "spam"})
	assert.True(t, isValidation(err))

	rec, err := b.Report(a.ID, c.ID, models.Report{Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, rec.TargetID)
	assert.Len(t, b.Reports(), 1)
}
