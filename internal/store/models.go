package store

import "time"

type User struct {
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"password,omitempty" json:"-"` // Never exposed in JSON responses
	IsAdmin      bool      `bson:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

type Session struct {
	Token     string    `bson:"token" json:"token"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Expires   time.Time `bson:"expires" json:"expires"`
}

type Feedback struct {
	Email     string         `bson:"email" json:"email"`
	Query     string         `bson:"query" json:"query"`
	Response  string         `bson:"response" json:"response"`
	Metadata  map[string]any `bson:"metadata" json:"metadata"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

type Event struct {
	Username  string         `bson:"username" json:"username"`
	EventType string         `bson:"event_type" json:"event_type"`
	Details   map[string]any `bson:"details" json:"details"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}
