package outbox

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/teachmate/internal/models"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newOutbox(changes *[][]models.Message) *Outbox {
	o := New(func(m []models.Message) {
		if changes != nil {
			*changes = append(*changes, m)
		}
	})
	o.now = func() time.Time { return t0 }
	return o
}

func TestEnqueueExposesPlaceholder(t *testing.T) {
	var changes [][]models.Message
	o := newOutbox(&changes)

	e, err := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ClientID)
	assert.Equal(t, StatusPending, e.Status)

	require.Len(t, changes, 1)
	p := changes[0][0]
	assert.True(t, p.Pending)
	assert.False(t, p.Failed)
	assert.Equal(t, e.ClientID, p.ClientID)
	assert.Equal(t, "t1", p.ThreadID)
}

func TestFilesAreBufferedForRetry(t *testing.T) {
	o := newOutbox(nil)
	e, err := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Files: []models.FileUpload{{Name: "a.txt", Reader: strings.NewReader("abc")}}})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ups := e.Uploads()
		require.Len(t, ups, 1)
		data, err := io.ReadAll(ups[0].Reader)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(data))
	}
	assert.Equal(t, int64(3), e.Placeholder().Attachments[0].Size)
}

func TestReconcileByClientID(t *testing.T) {
	o := newOutbox(nil)
	a, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "same"})
	b, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "same"})

	done := o.Reconcile("t1", []models.Message{{ID: "m1", SenderID: "me", Content: "same", ClientID: b.ClientID, CreatedAt: t0}})
	assert.Equal(t, []string{b.ClientID}, done)

	left := o.Entries()
	require.Len(t, left, 1)
	assert.Equal(t, a.ClientID, left[0].ClientID)
}

func TestReconcileFallsBackToContent(t *testing.T) {
	o := newOutbox(nil)
	a, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "hello"})
	b, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "hello"})

	// One confirmed copy retires only the oldest entry.
	done := o.Reconcile("t1", []models.Message{{ID: "m1", SenderID: "me", Content: "hello", CreatedAt: t0.Add(time.Second)}})
	assert.Equal(t, []string{a.ClientID}, done)

	// A message older than the entry is not a confirmation of it.
	done = o.Reconcile("t1", []models.Message{{ID: "m0", SenderID: "me", Content: "hello", CreatedAt: t0.Add(-time.Hour)}})
	assert.Empty(t, done)

	done = o.Reconcile("t1", []models.Message{
		{ID: "m1", SenderID: "me", Content: "hello", CreatedAt: t0.Add(time.Second)},
		{ID: "m2", SenderID: "me", Content: "hello", CreatedAt: t0.Add(2 * time.Second)},
	})
	assert.Equal(t, []string{b.ClientID}, done)
	assert.Empty(t, o.Entries())
}

func TestReconcileIgnoresOtherThreads(t *testing.T) {
	o := newOutbox(nil)
	_, _ = o.Enqueue(Draft{SenderID: "me", RecipientID: "u2", Content: "first"})

	done := o.Reconcile("t9", []models.Message{{ID: "m1", SenderID: "me", Content: "first", CreatedAt: t0}})
	assert.Empty(t, done)
	assert.Len(t, o.Entries(), 1)
}

func TestFirstMessageToStranger(t *testing.T) {
	o := newOutbox(nil)
	e, _ := o.Enqueue(Draft{SenderID: "me", RecipientID: "u2", Content: "hi there"})
	assert.Empty(t, e.ThreadID)

	require.NoError(t, o.AssignThread(e.ClientID, "t7"))
	require.NoError(t, o.MarkSent(e.ClientID, models.Message{ID: "m5", ThreadID: "t7"}))

	got, ok := o.Get(e.ClientID)
	require.True(t, ok)
	assert.Equal(t, StatusSent, got.Status)
	assert.Equal(t, "t7", got.Placeholder().ThreadID)

	done := o.Reconcile("t7", []models.Message{{ID: "m5", SenderID: "me", Content: "hi there", CreatedAt: t0}})
	assert.Equal(t, []string{e.ClientID}, done)
}

func TestReconcileListedMatchesLastMessage(t *testing.T) {
	o := newOutbox(nil)
	sent, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "a"})
	require.NoError(t, o.MarkSent(sent.ClientID, models.Message{ID: "m1", ThreadID: "t1"}))
	older, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t2", Content: "b"})
	require.NoError(t, o.MarkSent(older.ClientID, models.Message{ID: "m2", ThreadID: "t2"}))
	pending, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "c"})

	done := o.ReconcileListed([]models.Thread{
		{ID: "t1", LastMessage: &models.MessageSummary{ID: "m1"}},
		{ID: "t2", LastMessage: &models.MessageSummary{ID: "m9"}},
		{ID: "t3"},
	})
	assert.Equal(t, []string{sent.ClientID}, done)

	left := o.Entries()
	require.Len(t, left, 2)
	assert.Equal(t, older.ClientID, left[0].ClientID)
	assert.Equal(t, pending.ClientID, left[1].ClientID)

	assert.Empty(t, o.ReconcileListed(nil))
}

func TestFailedEntriesStayUntilRetriedOrDiscarded(t *testing.T) {
	o := newOutbox(nil)
	e, _ := o.Enqueue(Draft{SenderID: "me", ThreadID: "t1", Content: "x"})

	require.NoError(t, o.MarkFailed(e.ClientID, errors.New("boom")))
	got, _ := o.Get(e.ClientID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Err)
	assert.True(t, got.Placeholder().Failed)

	for i := 0; i < 5; i++ {
		retried, err := o.Retry(e.ClientID)
		require.NoError(t, err)
		require.NoError(t, o.MarkFailed(e.ClientID, errors.New("boom")))
		assert.Equal(t, i+2, retried.Attempts)
	}
	assert.Len(t, o.Entries(), 1, "no attempt cap")

	require.NoError(t, o.Discard(e.ClientID))
	assert.Empty(t, o.Placeholders())
	assert.ErrorIs(t, o.Discard(e.ClientID), ErrNotFound)
	_, err := o.Retry(e.ClientID)
	assert.ErrorIs(t, err, ErrNotFound)
}
