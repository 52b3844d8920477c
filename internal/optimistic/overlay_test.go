package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/teachmate/internal/models"
)

func TestApplyPatchUntilFetchReflectsIt(t *testing.T) {
	o := NewOverlay()
	n := models.Notification{ID: "n1", Title: "New message"}
	read := n
	read.Read = true
	require.NoError(t, o.Put(n.ID, n, read))

	// A poll tick that still reports unread keeps the local flag.
	got, err := Apply(o, n.ID, n)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.False(t, n.Read, "input untouched")
	assert.True(t, o.Has(n.ID))

	// Once the backend reports it read, the patch retires itself.
	got, err = Apply(o, n.ID, read)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.False(t, o.Has(n.ID))
}

func TestDropRollsBack(t *testing.T) {
	o := NewOverlay()
	s := models.Schedule{ID: "s1", Participants: []string{"u2"}}
	joined := s
	joined.Participants = []string{"u2", "me"}
	require.NoError(t, o.Put(s.ID, s, joined))

	got, err := Apply(o, s.ID, s)
	require.NoError(t, err)
	assert.True(t, got.HasParticipant("me"))

	o.Drop(s.ID)
	got, err = Apply(o, s.ID, s)
	require.NoError(t, err)
	assert.False(t, got.HasParticipant("me"))
}

func TestPatchesMerge(t *testing.T) {
	o := NewOverlay()
	o.PutPatch("p1", []byte(`{"question":"Lunch?"}`))
	o.PutPatch("p1", []byte(`{"multipleChoice":true}`))

	got, err := Apply(o, "p1", models.Poll{ID: "p1", Question: "Dinner?"})
	require.NoError(t, err)
	assert.Equal(t, "Lunch?", got.Question)
	assert.True(t, got.MultipleChoice)
}

func TestApplyAll(t *testing.T) {
	o := NewOverlay()
	o.PutPatch("n2", []byte(`{"read":true}`))

	list := []models.Notification{{ID: "n1"}, {ID: "n2"}}
	out := ApplyAll(o, list, func(n models.Notification) string { return n.ID })

	assert.False(t, out[0].Read)
	assert.True(t, out[1].Read)
	assert.False(t, list[1].Read)
	assert.Equal(t, 1, o.Len())
}
