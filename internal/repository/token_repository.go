package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type TokenRepository struct {
	*base.Repository
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{Repository: base.NewRepository(pool)}
}

const tokenColumns = `id, token, scope_key, active, created_at, deactivated_at`

func scanToken(row pgx.Row) (*model.AttendanceToken, error) {
	var (
		t        model.AttendanceToken
		scopeKey string
	)
	err := row.Scan(&t.ID, &t.Token, &scopeKey, &t.Active, &t.CreatedAt, &t.DeactivatedAt)
	if err != nil {
		return nil, err
	}

	scope, err := model.ParseScopeKey(scopeKey)
	if err != nil {
		return nil, err
	}
	t.Scope = scope

	return &t, nil
}

func insertToken(ctx context.Context, q base.Querier, token *model.AttendanceToken) error {
	query := `
		INSERT INTO attendance_tokens (token, scope_key, active, created_at)
		VALUES ($1, $2, TRUE, $3)
		RETURNING id
	`

	err := q.QueryRow(ctx, query, token.Token, token.Scope.Key(), token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return err
	}

	token.Active = true
	token.DeactivatedAt = nil
	return nil
}

// Create inserts a new active token. Fails with a unique violation if the
// scope already has an active token.
func (r *TokenRepository) Create(ctx context.Context, token *model.AttendanceToken) error {
	if err := insertToken(ctx, r.Pool(), token); err != nil {
		return fmt.Errorf("create attendance token: %w", err)
	}
	return nil
}

// GetByToken returns nil, nil when the token is unknown.
func (r *TokenRepository) GetByToken(ctx context.Context, token string) (*model.AttendanceToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM attendance_tokens WHERE token = $1`

	t, err := scanToken(r.QueryRow(ctx, query, token))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance token: %w", err)
	}

	return t, nil
}

func (r *TokenRepository) GetActiveByScope(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM attendance_tokens WHERE scope_key = $1 AND active`

	t, err := scanToken(r.QueryRow(ctx, query, scope.Key()))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active attendance token: %w", err)
	}

	return t, nil
}

// Rotate deactivates the active token of the scope and inserts the new one in
// a single transaction. The advisory lock serialises concurrent rotations of
// the same scope so the second one sees the first one's token.
func (r *TokenRepository) Rotate(ctx context.Context, token *model.AttendanceToken) error {
	key := token.Scope.Key()

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock scope: %w", err)
		}

		query := `
			UPDATE attendance_tokens
			SET active = FALSE, deactivated_at = $2
			WHERE scope_key = $1 AND active
		`
		if _, err := tx.Exec(ctx, query, key, token.CreatedAt); err != nil {
			return fmt.Errorf("deactivate previous token: %w", err)
		}

		if err := insertToken(ctx, tx, token); err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rotate attendance token: %w", err)
	}

	return nil
}

// DeactivateScope closes every active token of the scope. For an exam scope
// without a student this includes the per-student tokens issued under it.
func (r *TokenRepository) DeactivateScope(ctx context.Context, scope model.Scope, at time.Time) (int64, error) {
	query := `
		UPDATE attendance_tokens
		SET active = FALSE, deactivated_at = $3
		WHERE active AND (scope_key = $1 OR scope_key LIKE $2)
	`

	key := scope.Key()
	affected, err := r.ExecAffected(ctx, query, key, key+":%", at)
	if err != nil {
		return 0, fmt.Errorf("deactivate attendance tokens: %w", err)
	}

	return affected, nil
}

// DeleteInactiveBefore removes tokens deactivated before the cutoff. Active
// tokens are never touched.
func (r *TokenRepository) DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM attendance_tokens
		WHERE NOT active AND deactivated_at < $1
	`

	deleted, err := r.ExecAffected(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete inactive attendance tokens: %w", err)
	}

	return deleted, nil
}

// IssueBatch inserts the tokens in one transaction. A scope that already has
// an active token keeps it, and the existing token replaces the candidate in
// the slice.
func (r *TokenRepository) IssueBatch(ctx context.Context, tokens []*model.AttendanceToken) error {
	insert := `
		INSERT INTO attendance_tokens (token, scope_key, active, created_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (scope_key) WHERE active DO NOTHING
		RETURNING id
	`
	existing := `SELECT ` + tokenColumns + ` FROM attendance_tokens WHERE scope_key = $1 AND active`

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		for i, t := range tokens {
			err := tx.QueryRow(ctx, insert, t.Token, t.Scope.Key(), t.CreatedAt).Scan(&t.ID)
			if err == nil {
				t.Active = true
				continue
			}
			if !base.IsNotFound(err) {
				return fmt.Errorf("insert token for %s: %w", t.Scope, err)
			}

			current, err := scanToken(tx.QueryRow(ctx, existing, t.Scope.Key()))
			if err != nil {
				return fmt.Errorf("load active token for %s: %w", t.Scope, err)
			}
			tokens[i] = current
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("issue attendance tokens: %w", err)
	}

	return nil
}
