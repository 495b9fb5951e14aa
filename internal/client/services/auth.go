package services

import (
	"context"
	"fmt"

	"github.com/avolkovs/pennywise/internal/client/client"
)

// AuthService handles account registration and session establishment against
// the remote record service. Tokens live inside the remote client; this
// service only orchestrates the calls.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
}

func NewAuthService(c client.Client) AuthService {
	return &authService{client: c}
}

func (s *authService) Register(ctx context.Context, username, password string) error {
	if err := s.client.Register(ctx, username, password); err != nil {
		return fmt.Errorf("registration error: %w", err)
	}
	return s.Login(ctx, username, password)
}

func (s *authService) Login(ctx context.Context, username, password string) error {
	if err := s.client.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return nil
}

func (s *authService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *authService) Close(ctx context.Context) error {
	return s.client.Close()
}
