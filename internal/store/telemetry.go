package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddFeedback appends a feedback record. The collection is append-only;
// there is no update or delete path.
func (s *MongoStore) AddFeedback(ctx context.Context, email, query, response string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	doc := Feedback{
		Email:     email,
		Query:     query,
		Response:  response,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.feedback().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns up to limit records, newest first.
func (s *MongoStore) ListFeedback(ctx context.Context, limit int64) ([]Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.feedback().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer cur.Close(ctx)

	var records []Feedback
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}
	return records, nil
}

// AddEvent appends a usage event to the events collection.
func (s *MongoStore) AddEvent(ctx context.Context, username, eventType string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	doc := Event{
		Username:  username,
		EventType: eventType,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.events().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
