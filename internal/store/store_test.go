package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// These tests run against a live MongoDB and are skipped unless
// ASKAI_TEST_MONGO_URI is set, e.g.
//
//	ASKAI_TEST_MONGO_URI=mongodb://localhost:27017 go test ./internal/store/
func newTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("ASKAI_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ASKAI_TEST_MONGO_URI not set, skipping store integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "askai_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.CreateSession(ctx, "a@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := s.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
}

func TestExpiredSessionLazilyPurged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.CreateSession(ctx, "a@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = s.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The expired record is gone, not just rejected.
	_, err = s.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	n, err := s.sessions().CountDocuments(ctx, bson.M{"token": token})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteSessionIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.CreateSession(ctx, "a@example.com", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSession(ctx, token))
	require.NoError(t, s.DeleteSession(ctx, token), "deleting a nonexistent token is not an error")
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@example.com", "Alice", "hash", false)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash, "returned user must not carry the hash")

	_, err = s.CreateUser(ctx, "a@example.com", "Alice Again", "hash2", false)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestFeedbackAndEventsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddFeedback(ctx, "a@example.com", "q1", "r1", nil))
	time.Sleep(5 * time.Millisecond) // created_at has millisecond precision in mongo
	require.NoError(t, s.AddFeedback(ctx, "a@example.com", "q2", "r2", map[string]any{"rating": 5}))
	require.NoError(t, s.AddEvent(ctx, "a@example.com", "login", map[string]any{"via": "password"}))

	records, err := s.ListFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q2", records[0].Query, "newest first")
}

func TestListUsersHidesPasswords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "a@example.com", "Alice", "hash", true)
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
	assert.True(t, users[0].IsAdmin)
}
