package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

const RoleUser = "user"

type AuthResult struct {
	AccountID   string
	AccessToken string
	ExpiresAt   time.Time
}

type Service struct {
	jwt      *JWTManager
	botToken string
}

func NewService(jwtManager *JWTManager, botToken string) *Service {
	return &Service{
		jwt:      jwtManager,
		botToken: botToken,
	}
}

func (s *Service) LoginTelegram(_ context.Context, initData string) (AuthResult, error) {
	if s.jwt == nil {
		return AuthResult{}, fmt.Errorf("jwt manager is nil")
	}

	if err := VerifyTelegramInitData(initData, s.botToken); err != nil {
		return AuthResult{}, err
	}

	accountID, err := ResolveAccountID(initData)
	if err != nil {
		return AuthResult{}, err
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(accountID, RoleUser)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccountID:   accountID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) ValidateAccessToken(_ context.Context, raw string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, fmt.Errorf("jwt manager is nil")
	}
	return s.jwt.ParseAccessToken(raw)
}
