package devserver

import (
	"sort"
	"strings"
	"time"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

// threadView renders t as viewerID sees it. A direct thread is a friend
// thread only while the two parties are friends.
func (b *Backend) threadView(t *thread, viewerID string) models.Thread {
	out := models.Thread{
		ID:        t.id,
		Name:      t.name,
		AvatarURL: t.avatarURL,
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
		Members:   make([]models.User, 0, len(t.members)),
	}
	for _, m := range t.members {
		out.Members = append(out.Members, b.publicUser(m))
	}

	switch {
	case t.group:
		out.Type = models.ThreadGroup
	case b.areFriends(t.members[0], t.members[1]):
		out.Type = models.ThreadFriend
	default:
		out.Type = models.ThreadStranger
	}

	msgs := b.messages[t.id]
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		out.LastMessage = &models.MessageSummary{
			ID:        last.ID,
			SenderID:  last.SenderID,
			Content:   last.Content,
			CreatedAt: last.CreatedAt,
		}
	}
	seen := b.lastRead[viewerID][t.id]
	for _, m := range msgs {
		if m.SenderID != viewerID && m.CreatedAt.After(seen) {
			out.UnreadCount++
		}
	}
	return out
}

// visible hides empty direct threads from the party that did not open them.
func (b *Backend) visible(t *thread, viewerID string) bool {
	return t.group || t.createdBy == viewerID || len(b.messages[t.id]) > 0
}

// Threads lists viewerID's threads of the given type, most recent first.
func (b *Backend) Threads(viewerID string, typ models.ThreadType) []models.Thread {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.Thread{}
	for _, t := range b.threads {
		if !t.hasMember(viewerID) || !b.visible(t, viewerID) {
			continue
		}
		v := b.threadView(t, viewerID)
		if v.Type == typ {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// memberThread returns the thread if viewerID belongs to it. Non-members get
// ErrNotFound so that access checks never look like a rejected token.
func (b *Backend) memberThread(viewerID, threadID string) (*thread, error) {
	t, ok := b.threads[threadID]
	if !ok || !t.hasMember(viewerID) {
		return nil, ErrNotFound
	}
	return t, nil
}

// GetThread returns the transcript and marks it read for viewerID.
func (b *Backend) GetThread(viewerID, threadID string) (models.ThreadDetail, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.memberThread(viewerID, threadID)
	if err != nil {
		return models.ThreadDetail{}, err
	}

	msgs := make([]models.Message, len(b.messages[t.id]))
	for i, m := range b.messages[t.id] {
		sender := b.publicUser(m.SenderID)
		m.Sender = &sender
		m.Attachments = append([]models.Attachment(nil), m.Attachments...)
		msgs[i] = m
	}

	if b.lastRead[viewerID] == nil {
		b.lastRead[viewerID] = map[string]time.Time{}
	}
	b.lastRead[viewerID][t.id] = b.now()

	return models.ThreadDetail{Thread: b.threadView(t, viewerID), Messages: msgs}, nil
}

// GetOrCreateDirect returns the single direct thread between viewerID and
// otherID. Concurrent calls for the same pair always agree.
func (b *Backend) GetOrCreateDirect(viewerID, otherID string) (models.Thread, error) {
	if viewerID == otherID {
		return models.Thread{}, invalid("You cannot message yourself")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[otherID]; !ok {
		return models.Thread{}, ErrNotFound
	}

	key := pairKey(viewerID, otherID)
	if id, ok := b.direct[key]; ok {
		return b.threadView(b.threads[id], viewerID), nil
	}

	now := b.now()
	t := &thread{
		id:        newID(),
		createdBy: viewerID,
		members:   []string{viewerID, otherID},
		createdAt: now,
		updatedAt: now,
	}
	b.threads[t.id] = t
	b.direct[key] = t.id
	b.publisher.Publish([]string{viewerID}, push.Event{Type: push.ThreadCreated, ThreadID: t.id})
	return b.threadView(t, viewerID), nil
}

// CreateGroup starts a group with the creator and the listed members.
func (b *Backend) CreateGroup(creatorID string, in models.CreateGroupInput) (models.Thread, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Thread{}, invalid("Group name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range in.MemberIDs {
		if seen[id] {
			continue
		}
		if _, ok := b.users[id]; !ok {
			return models.Thread{}, invalid("Unknown member %s", id)
		}
		seen[id] = true
		members = append(members, id)
	}

	now := b.now()
	t := &thread{
		id:        newID(),
		group:     true,
		name:      name,
		createdBy: creatorID,
		members:   members,
		createdAt: now,
		updatedAt: now,
	}
	b.threads[t.id] = t

	creator := b.publicUser(creatorID)
	for _, m := range members[1:] {
		b.notify(m, models.Notification{
			Type:     models.NotifyGroupInvite,
			Title:    creator.Username + " added you to " + name,
			TargetID: t.id,
		})
	}
	b.publisher.Publish(members, push.Event{Type: push.GroupUpdated, ThreadID: t.id})
	return b.threadView(t, creatorID), nil
}

func (b *Backend) JoinGroup(userID, threadID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.threads[threadID]
	if !ok || !t.group {
		return ErrNotFound
	}
	if t.hasMember(userID) {
		return invalid("You are already a member of this group")
	}
	t.members = append(t.members, userID)
	t.updatedAt = b.now()
	b.publisher.Publish(t.members, push.Event{Type: push.GroupUpdated, ThreadID: t.id})
	return nil
}

func (b *Backend) LeaveGroup(userID, threadID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.memberThread(userID, threadID)
	if err != nil || !t.group {
		return ErrNotFound
	}
	remaining := t.members[:0]
	for _, m := range t.members {
		if m != userID {
			remaining = append(remaining, m)
		}
	}
	t.members = remaining
	t.updatedAt = b.now()
	b.publisher.Publish(append([]string{userID}, t.members...), push.Event{Type: push.GroupUpdated, ThreadID: t.id})
	return nil
}
