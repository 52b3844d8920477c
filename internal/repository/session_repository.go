package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dias221467/teachmate/internal/session"
)

// SessionRepository stores one session document per profile in MongoDB, for
// clients that share a session between machines.
type SessionRepository struct {
	collection *mongo.Collection
	profile    string
}

func NewSessionRepository(db *mongo.Database, profile string) *SessionRepository {
	if profile == "" {
		profile = "default"
	}
	return &SessionRepository{
		collection: db.Collection("sessions"),
		profile:    profile,
	}
}

// Load returns the saved session, or an empty one if none exists.
func (r *SessionRepository) Load(ctx context.Context) (session.Session, error) {
	var s session.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": r.profile}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// Save upserts the session document.
func (r *SessionRepository) Save(ctx context.Context, s session.Session) error {
	update := bson.M{"$set": bson.M{
		"token":      s.Token,
		"language":   s.Language,
		"updated_at": s.UpdatedAt,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": r.profile}, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("profile", r.profile).Error("Failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": r.profile}); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
