package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type ClaimSessionRepository struct {
	*base.Repository
}

func NewClaimSessionRepository(pool *pgxpool.Pool) *ClaimSessionRepository {
	return &ClaimSessionRepository{Repository: base.NewRepository(pool)}
}

func (r *ClaimSessionRepository) Create(ctx context.Context, session *model.ClaimSession) error {
	query := `
		INSERT INTO claim_sessions (session_id, scope_key, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.ExecAffected(ctx, query,
		session.SessionID,
		session.Scope.Key(),
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create claim session: %w", err)
	}

	return nil
}

// GetByID returns nil, nil when the session does not exist. Expired sessions
// are returned as is; the caller decides.
func (r *ClaimSessionRepository) GetByID(ctx context.Context, sessionID string) (*model.ClaimSession, error) {
	query := `
		SELECT session_id, scope_key, created_at, expires_at
		FROM claim_sessions
		WHERE session_id = $1
	`

	var (
		session  model.ClaimSession
		scopeKey string
	)
	err := r.QueryRow(ctx, query, sessionID).Scan(
		&session.SessionID,
		&scopeKey,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get claim session: %w", err)
	}

	scope, err := model.ParseScopeKey(scopeKey)
	if err != nil {
		return nil, fmt.Errorf("get claim session: %w", err)
	}
	session.Scope = scope

	return &session, nil
}

// DeleteExpired removes sessions that expired before now.
func (r *ClaimSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := r.ExecAffected(ctx, `DELETE FROM claim_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired claim sessions: %w", err)
	}
	return deleted, nil
}
