package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

// ClaimService exchanges a valid token for a short-lived claim session.
type ClaimService struct {
	tokens   *TokenService
	sessions ClaimSessionStore
	opts     Options
	logger   *zap.Logger
}

func NewClaimService(tokens *TokenService, sessions ClaimSessionStore, opts Options, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		tokens:   tokens,
		sessions: sessions,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// SessionTTL is the claim window; the cookie max-age mirrors it.
func (s *ClaimService) SessionTTL() time.Duration {
	return s.opts.ClaimSessionTTL
}

// Claim validates the token and persists a new session bound to its scope.
// Nothing is stored when validation or id generation fails. Per-student exam
// tokens are not claimable: they are scanned by the invigilator and fail
// with ErrForbidden here.
func (s *ClaimService) Claim(ctx context.Context, token string) (*model.ClaimSession, error) {
	scope, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if scope.StudentID != nil {
		return nil, ErrForbidden
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := s.opts.Clock()
	session := &model.ClaimSession{
		SessionID: sessionID,
		Scope:     *scope,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.ClaimSessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store claim session: %w", err)
	}

	return session, nil
}

// ReapExpired deletes sessions past their expiry.
func (s *ClaimService) ReapExpired(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.opts.Clock())
	if err != nil {
		return 0, fmt.Errorf("reap claim sessions: %w", err)
	}
	return deleted, nil
}
