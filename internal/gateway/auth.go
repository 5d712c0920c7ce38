package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clubcam-sync/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Session is the authenticated state held by the gateway. The user id comes
// from the access token's "sub" claim.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// authResponse is the wire shape of the auth endpoint's token and signup
// responses.
type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignUp registers a new account and, when the backend issues a session
// immediately, stores it.
func (g *Gateway) SignUp(ctx context.Context, email, password string) (models.User, error) {
	return g.authenticate(ctx, "signup", g.baseURL+"/auth/v1/signup", email, password)
}

// SignIn authenticates with email and password and stores the session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (models.User, error) {
	return g.authenticate(ctx, "signin", g.baseURL+"/auth/v1/token?grant_type=password", email, password)
}

func (g *Gateway) authenticate(ctx context.Context, op, rawURL, email, password string) (models.User, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return models.User{}, &AuthError{Op: op, Err: err}
	}

	req, err := g.newRequest(ctx, http.MethodPost, rawURL, payload)
	if err != nil {
		return models.User{}, &AuthError{Op: op, Err: err}
	}

	body, status, err := g.do(req)
	if err != nil {
		return models.User{}, &AuthError{Op: op, Status: status, Err: err}
	}
	if !ok(status) {
		return models.User{}, &AuthError{Op: op, Status: status, Err: statusError(status, body)}
	}

	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return models.User{}, &AuthError{Op: op, Status: status, Err: fmt.Errorf("failed to decode auth response: %w", err)}
	}
	if auth.User.ID == "" {
		return models.User{}, &AuthError{Op: op, Status: status, Err: fmt.Errorf("auth response has no user")}
	}

	if auth.AccessToken != "" {
		session, err := sessionFromToken(auth.AccessToken)
		if err != nil {
			return models.User{}, &AuthError{Op: op, Status: status, Err: err}
		}
		g.mu.Lock()
		g.session = session
		g.mu.Unlock()
	}

	log.Info().Str("user_id", auth.User.ID).Str("op", op).Msg("Authenticated")

	return models.User{
		ID:    auth.User.ID,
		Email: auth.User.Email,
	}, nil
}

// SignOut revokes the session server-side and clears the local reference.
// The local session is cleared even when revocation fails; the error is
// still returned so the caller can surface it.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()
	if session == nil {
		return ErrNoSession
	}

	req, err := g.newRequest(ctx, http.MethodPost, g.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return &AuthError{Op: "signout", Err: err}
	}
	body, status, err := g.do(req)

	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()

	if err != nil {
		return &AuthError{Op: "signout", Status: status, Err: err}
	}
	if !ok(status) {
		return &AuthError{Op: "signout", Status: status, Err: statusError(status, body)}
	}
	return nil
}

// Session returns the current session, or ErrNoSession when none is held or
// the access token has expired.
func (g *Gateway) Session() (Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return Session{}, ErrNoSession
	}
	if !g.session.ExpiresAt.IsZero() && time.Now().After(g.session.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	return *g.session, nil
}

// sessionFromToken extracts the session identity from the access token. The
// token is signed with the project's JWT secret, which the client does not
// hold, so the claims are read without signature verification; the backend
// verifies the signature on every request that carries the token.
func sessionFromToken(accessToken string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("access token has no subject claim")
	}

	session := &Session{
		UserID:      sub,
		AccessToken: accessToken,
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}
