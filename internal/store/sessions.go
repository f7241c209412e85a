package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateSession issues a new opaque session token for email, valid for ttl.
func (s *MongoStore) CreateSession(ctx context.Context, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		Expires:   now.Add(ttl),
	}
	if _, err := s.sessions().InsertOne(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	log.Printf("Created session for %s, expires %s", email, sess.Expires.Format(time.RFC3339))
	return sess.Token, nil
}

// ValidateSession returns the owning email if the token exists and has not
// expired. An expired record is deleted as a side effect and reported as
// ErrSessionNotFound. Store connectivity errors propagate wrapped.
func (s *MongoStore) ValidateSession(ctx context.Context, token string) (string, error) {
	var sess Session
	err := s.sessions().FindOne(ctx, bson.M{"token": token}).Decode(&sess)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to query session: %w", err)
	}

	if time.Now().UTC().After(sess.Expires) {
		// Lazy purge. A delete failure here is not worth failing the
		// validation over; the record stays expired either way.
		if _, err := s.sessions().DeleteOne(ctx, bson.M{"token": token}); err != nil {
			log.Printf("Failed to purge expired session for %s: %v", sess.Email, err)
		}
		return "", ErrSessionNotFound
	}

	return sess.Email, nil
}

// DeleteSession removes a token unconditionally. Deleting a token that does
// not exist is not an error.
func (s *MongoStore) DeleteSession(ctx context.Context, token string) error {
	res, err := s.sessions().DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Printf("Deleted %d session(s) for token", res.DeletedCount)
	return nil
}
