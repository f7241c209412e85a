package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tucsfe/askai/internal/store"
)

var ErrInvalidPassword = errors.New("invalid password")

// UserStore is the slice of the document store the auth flow needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string, isAdmin bool) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateSession(ctx context.Context, email string, ttl time.Duration) (string, error)
}

type Service struct {
	store      UserStore
	sessionTTL time.Duration
}

func NewService(s UserStore, sessionTTL time.Duration) *Service {
	return &Service{store: s, sessionTTL: sessionTTL}
}

// Register creates a user with a one-way password hash. The returned user
// never carries the hash.
func (s *Service) Register(ctx context.Context, email, name, password string, isAdmin bool) (*store.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, email, name, hash, isAdmin)
	if err != nil {
		return nil, err
	}
	log.Printf("Registered user %s", email)
	return user, nil
}

// Login verifies the password against the stored hash and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("Login failed for %s: invalid password", email)
		return "", ErrInvalidPassword
	}
	token, err := s.store.CreateSession(ctx, email, s.sessionTTL)
	if err != nil {
		return "", err
	}
	log.Printf("Login success %s", email)
	return token, nil
}

// IssueSession creates a session for an identity already verified
// externally (e.g. a Google ID token).
func (s *Service) IssueSession(ctx context.Context, email string) (string, error) {
	return s.store.CreateSession(ctx, email, s.sessionTTL)
}
