package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/outbox"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
	"github.com/Dias221467/teachmate/internal/viewmodel"
)

type ChatAPI interface {
	SendMessage(ctx context.Context, in models.SendMessageInput) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	GetOrCreateDirectThread(ctx context.Context, userID string) (*models.Thread, error)
}

// ChatService sends and deletes messages. Every send goes through the outbox
// so the transcript shows a placeholder until a fetch confirms it.
type ChatService struct {
	api    ChatAPI
	store  *store.Store
	outbox *outbox.Outbox
	sync   Refresher
	toast  toaster
	log    *logrus.Entry
}

func NewChatService(api ChatAPI, st *store.Store, ob *outbox.Outbox, sync Refresher, log *logrus.Entry) *ChatService {
	log = componentLog(log, "chat_service")
	return &ChatService{api: api, store: st, outbox: ob, sync: sync, toast: toaster{st, log}, log: log}
}

// Open makes threadID the active thread.
func (s *ChatService) Open(threadID string) {
	s.sync.OpenThread(threadID)
}

// Send posts content and files to an existing thread.
func (s *ChatService) Send(ctx context.Context, threadID, content string, files []models.FileUpload) (outbox.Entry, error) {
	in := models.SendMessageInput{ThreadID: threadID, Content: content, Files: files}
	if err := validateInput(in); err != nil {
		return outbox.Entry{}, err
	}
	me, err := currentUserID(s.store)
	if err != nil {
		return outbox.Entry{}, err
	}

	entry, err := s.outbox.Enqueue(outbox.Draft{SenderID: me, ThreadID: threadID, Content: content, Files: files})
	if err != nil {
		return outbox.Entry{}, err
	}
	return s.deliver(ctx, entry)
}

// SendToUser sends to the direct thread with userID, creating the thread on
// the first message. The created thread becomes active.
func (s *ChatService) SendToUser(ctx context.Context, userID, content string, files []models.FileUpload) (outbox.Entry, error) {
	in := models.SendMessageInput{Content: content, Files: files}
	if err := validateInput(in, "ThreadID"); err != nil {
		return outbox.Entry{}, err
	}
	me, err := currentUserID(s.store)
	if err != nil {
		return outbox.Entry{}, err
	}
	if userID == "" || userID == me {
		return outbox.Entry{}, fmt.Errorf("invalid recipient %q", userID)
	}

	st := s.store.State()
	known := append(append([]models.Thread{}, st.Threads...), st.StrangerThreads...)
	if t, ok := viewmodel.FindDirectThread(me, userID, known); ok {
		s.sync.OpenThread(t.ID)
		return s.Send(ctx, t.ID, content, files)
	}

	entry, err := s.outbox.Enqueue(outbox.Draft{SenderID: me, RecipientID: userID, Content: content, Files: files})
	if err != nil {
		return outbox.Entry{}, err
	}
	entry, err = s.resolveThread(ctx, entry)
	if err != nil {
		return entry, err
	}
	return s.deliver(ctx, entry)
}

// Retry resends a failed message. There is no attempt limit.
func (s *ChatService) Retry(ctx context.Context, clientID string) (outbox.Entry, error) {
	entry, err := s.outbox.Retry(clientID)
	if err != nil {
		return outbox.Entry{}, err
	}
	if entry.ThreadID == "" {
		if entry, err = s.resolveThread(ctx, entry); err != nil {
			return entry, err
		}
	}
	return s.deliver(ctx, entry)
}

// Discard drops a pending or failed message without sending it.
func (s *ChatService) Discard(clientID string) error {
	return s.outbox.Discard(clientID)
}

// Delete removes a confirmed message.
func (s *ChatService) Delete(ctx context.Context, threadID, messageID string) error {
	if err := s.api.DeleteMessage(ctx, messageID); err != nil {
		s.toast.failure("Delete message", err)
		return err
	}
	s.store.Dispatch(store.MessageDeleted{ThreadID: threadID, MessageID: messageID})
	s.toast.success("Message deleted")
	s.sync.Refetch(syncer.ActiveThread, syncer.Attachments, syncer.Threads, syncer.StrangerThreads, syncer.Groups)
	return nil
}

func (s *ChatService) resolveThread(ctx context.Context, entry outbox.Entry) (outbox.Entry, error) {
	t, err := s.api.GetOrCreateDirectThread(ctx, entry.RecipientID)
	if err != nil {
		s.fail(entry, "Start conversation", err)
		entry.Status = outbox.StatusFailed
		return entry, err
	}
	if err := s.outbox.AssignThread(entry.ClientID, t.ID); err != nil {
		return entry, err
	}
	entry.ThreadID = t.ID
	s.sync.OpenThread(t.ID)
	s.sync.Refetch(syncer.Threads, syncer.StrangerThreads)
	return entry, nil
}

func (s *ChatService) deliver(ctx context.Context, entry outbox.Entry) (outbox.Entry, error) {
	msg, err := s.api.SendMessage(ctx, models.SendMessageInput{
		ThreadID: entry.ThreadID,
		Content:  entry.Content,
		ClientID: entry.ClientID,
		Files:    entry.Uploads(),
	})
	if err != nil {
		s.fail(entry, "Send message", err)
		entry.Status = outbox.StatusFailed
		return entry, err
	}

	if err := s.outbox.MarkSent(entry.ClientID, *msg); err != nil {
		s.log.WithError(err).WithField("client_id", entry.ClientID).Debug("Message reconciled before send returned")
	}
	entry.Status = outbox.StatusSent
	entry.ServerID = msg.ID

	resources := []syncer.Resource{syncer.ActiveThread, syncer.Threads, syncer.StrangerThreads, syncer.Groups}
	if len(entry.Files) > 0 {
		resources = append(resources, syncer.Attachments)
	}
	s.sync.Refetch(resources...)
	return entry, nil
}

func (s *ChatService) fail(entry outbox.Entry, action string, err error) {
	if merr := s.outbox.MarkFailed(entry.ClientID, err); merr != nil {
		s.log.WithError(merr).Warn("Failed to mark message failed")
	}
	s.toast.failure(action, err)
}
