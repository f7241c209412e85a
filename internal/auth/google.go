package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Identity is the verified subject of an external ID token.
type Identity struct {
	Email string
	Name  string
}

// VerifyGoogleIDToken validates a Google-issued ID token. When clientID is
// non-empty the token audience must match it.
func VerifyGoogleIDToken(ctx context.Context, rawToken, clientID string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("google token has no email claim")
	}
	name, _ := payload.Claims["name"].(string)

	return &Identity{Email: email, Name: name}, nil
}
