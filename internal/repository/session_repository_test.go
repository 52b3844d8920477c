package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Dias221467/teachmate/internal/session"
)

func TestSessionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load existing", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "")
		updated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "teachmate.sessions", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "default"},
			{Key: "token", Value: "abc"},
			{Key: "language", Value: "kk"},
			{Key: "updated_at", Value: updated},
		}))

		s, err := repo.Load(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, "abc", s.Token)
		assert.Equal(mt, "kk", s.Language)
		assert.True(mt, updated.Equal(s.UpdatedAt))
	})

	mt.Run("load missing", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "laptop")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "teachmate.sessions", mtest.FirstBatch))

		s, err := repo.Load(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, session.Session{}, s)
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "")
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "default"}}}}})

		require.NoError(mt, repo.Save(context.Background(), session.Session{Token: "abc"}))
	})

	mt.Run("save error", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "boom", Name: "DuplicateKey"}))

		err := repo.Save(context.Background(), session.Session{Token: "abc"})
		assert.Error(mt, err)
	})

	mt.Run("clear", func(mt *mtest.T) {
		repo := NewSessionRepository(mt.DB, "")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Clear(context.Background()))
	})

	mt.Run("works behind the session manager", func(mt *mtest.T) {
		var store session.Store = NewSessionRepository(mt.DB, "")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "teachmate.sessions", mtest.FirstBatch))
		m := session.NewManager(store, nil)
		require.NoError(mt, m.Load(context.Background()))
		assert.Empty(mt, m.Token())
	})
}

var _ session.Store = (*SessionRepository)(nil)
