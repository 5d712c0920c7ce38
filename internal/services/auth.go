package services

import (
	"context"
	"fmt"

	"clubcam-sync/internal/gateway"
	"clubcam-sync/internal/models"
)

// AuthService handles account sign-up, sign-in and sign-out.
type AuthService struct {
	gw *gateway.Gateway
}

// NewAuthService creates a new auth service.
func NewAuthService(gw *gateway.Gateway) *AuthService {
	return &AuthService{gw: gw}
}

// SignUp registers a new account.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.gw.SignUp(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to sign up: %w", err)
	}
	return user, nil
}

// SignIn authenticates an existing account.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.gw.SignIn(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to sign in: %w", err)
	}
	return user, nil
}

// SignOut ends the current session.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.gw.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// CurrentUserID returns the id of the signed-in user, or
// gateway.ErrNoSession when nobody is signed in.
func (s *AuthService) CurrentUserID(ctx context.Context) (string, error) {
	session, err := s.gw.Session()
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}
