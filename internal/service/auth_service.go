package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// AuthService authenticates back-office operators.
type AuthService struct {
	directory repository.DirectoryRepository
	tokens    *auth.TokenManager
	logger    *zap.Logger
}

// NewAuthService creates the service.
func NewAuthService(directory repository.DirectoryRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{directory: directory, tokens: tokens, logger: logger}
}

// Login authenticates by email and password and returns a role-bearing
// token. Wrong email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Actor, string, time.Time, error) {
	actor, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !actor.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(actor.ID, actor.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.logger.Info("operator logged in", zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	return actor, token, expiresAt, nil
}
