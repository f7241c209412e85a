package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tucsfe/askai/internal/auth"
	"github.com/tucsfe/askai/internal/store"
)

const sessionCookieName = "session_token"

type contextKey string

const emailContextKey contextKey = "userEmail"

// Store is the slice of the document store the API layer needs.
type Store interface {
	ValidateSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	AddFeedback(ctx context.Context, email, query, response string, metadata map[string]any) error
	ListFeedback(ctx context.Context, limit int64) ([]store.Feedback, error)
	AddEvent(ctx context.Context, username, eventType string, details map[string]any) error
}

// AuthService covers registration and password login.
type AuthService interface {
	Register(ctx context.Context, email, name, password string, isAdmin bool) (*store.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	IssueSession(ctx context.Context, email string) (string, error)
}

// Asker answers a user query through the RAG pipeline.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// TokenVerifier checks an external identity token and returns the verified
// identity.
type TokenVerifier func(ctx context.Context, rawToken, clientID string) (*auth.Identity, error)

type APIHandler struct {
	store       Store
	authSvc     AuthService
	pipeline    Asker
	verifyToken TokenVerifier
	clientID    string
}

func NewAPIHandler(s Store, authSvc AuthService, pipeline Asker, verifyToken TokenVerifier, clientID string) *APIHandler {
	if verifyToken == nil {
		verifyToken = auth.VerifyGoogleIDToken
	}
	return &APIHandler{
		store:       s,
		authSvc:     authSvc,
		pipeline:    pipeline,
		verifyToken: verifyToken,
		clientID:    clientID,
	}
}

// SessionAuthMiddleware validates the session cookie against the store
// before any downstream work runs. A store outage on this path is a 500,
// never silently treated as "unauthenticated".
func (h *APIHandler) SessionAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, "Missing session token", http.StatusUnauthorized)
			return
		}

		email, err := h.store.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}
			log.Printf("Session validation failed: %v", err)
			http.Error(w, "Session store unavailable", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), emailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnlyMiddleware requires the session user to carry the admin flag.
func (h *APIHandler) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Context().Value(emailContextKey).(string)
		user, err := h.store.GetUserByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				http.Error(w, "Admin access required", http.StatusForbidden)
				return
			}
			log.Printf("Admin lookup failed for %s: %v", email, err)
			http.Error(w, "Store unavailable", http.StatusInternalServerError)
			return
		}
		if !user.IsAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type LoginRequest struct {
	IDToken string `json:"id_token"`
}

// LoginHandler exchanges a verified external ID token for a session cookie.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		http.Error(w, "id_token is required", http.StatusBadRequest)
		return
	}

	identity, err := h.verifyToken(r.Context(), req.IDToken, h.clientID)
	if err != nil {
		log.Printf("ID token verification failed: %v", err)
		http.Error(w, "Invalid Google token", http.StatusUnauthorized)
		return
	}

	token, err := h.authSvc.IssueSession(r.Context(), identity.Email)
	if err != nil {
		log.Printf("Failed to create session for %s: %v", identity.Email, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token)

	if err := h.store.AddEvent(r.Context(), identity.Email, "login", map[string]any{"via": "google"}); err != nil {
		log.Printf("Failed to record login event for %s: %v", identity.Email, err)
	}

	log.Printf("Login success %s", identity.Email)
	json.NewEncoder(w).Encode(map[string]string{"email": identity.Email, "name": identity.Name})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Email, req.Name, req.Password, false)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		log.Printf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type PasswordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) PasswordLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Printf("Login failed for %s: %v", req.Email, err)
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token)

	if err := h.store.AddEvent(r.Context(), req.Email, "login", map[string]any{"via": "password"}); err != nil {
		log.Printf("Failed to record login event for %s: %v", req.Email, err)
	}

	json.NewEncoder(w).Encode(map[string]string{"email": req.Email})
}

type AskRequest struct {
	Prompt string `json:"prompt"`
}

type AskResponse struct {
	Response string `json:"response"`
}

func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	email := r.Context().Value(emailContextKey).(string)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("Ask request by %s prompt_len=%d", email, len(req.Prompt))
	answer, err := h.pipeline.Ask(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("RAG pipeline error for %s: %v", email, err)
		http.Error(w, "Failed to answer query", http.StatusInternalServerError)
		return
	}

	// Telemetry is best-effort: a computed answer is never failed over a
	// bookkeeping write.
	if err := h.store.AddFeedback(r.Context(), email, req.Prompt, answer, map[string]any{"source": "ui"}); err != nil {
		log.Printf("Failed to persist feedback for %s: %v", email, err)
	}
	if err := h.store.AddEvent(r.Context(), email, "query", map[string]any{"prompt_len": len(req.Prompt)}); err != nil {
		log.Printf("Failed to record query event for %s: %v", email, err)
	}

	json.NewEncoder(w).Encode(AskResponse{Response: answer})
}

type FeedbackRequest struct {
	Prompt   string         `json:"prompt"`
	Response string         `json:"response"`
	Rating   *int           `json:"rating,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// FeedbackHandler records explicit user feedback, optionally with a rating.
func (h *APIHandler) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	email := r.Context().Value(emailContextKey).(string)

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	metadata := req.Extra
	if metadata == nil {
		metadata = map[string]any{}
	}
	if req.Rating != nil {
		metadata["rating"] = *req.Rating
	}

	if err := h.store.AddFeedback(r.Context(), email, req.Prompt, req.Response, metadata); err != nil {
		log.Printf("Failed to store feedback for %s: %v", email, err)
		http.Error(w, "Failed to store feedback", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutHandler deletes the session record when a cookie is present and
// always clears the cookie. It is idempotent: logging out an already
// logged-out session still succeeds.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			log.Printf("Failed to delete session on logout: %v", err)
		}
	}
	clearSessionCookie(w)
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(users)
}

func (h *APIHandler) ListFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListFeedback(r.Context(), 100)
	if err != nil {
		log.Printf("Error listing feedback: %v", err)
		http.Error(w, "Failed to list feedback", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(records)
}
