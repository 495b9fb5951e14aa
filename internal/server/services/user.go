// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/auth"
	"github.com/avolkovs/pennywise/internal/server/config"
	"github.com/avolkovs/pennywise/internal/server/models"
	"github.com/avolkovs/pennywise/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with a bcrypt-hashed password. A taken
// username surfaces as common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and mints a token pair. Both an unknown
// username and a wrong password yield common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user.ID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// VerifyAccessToken resolves an access token to the owning user id.
func (s *UserService) VerifyAccessToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, db dbx.DBTX) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	refreshToken, err := makeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	err = s.repomanager.RefreshTokens(db).Add(ctx, &models.RefreshToken{
		Token:   refreshToken,
		UserID:  userID,
		Expires: time.Now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// makeRandHexString generates size random bytes hex-encoded (2*size chars).
func makeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
