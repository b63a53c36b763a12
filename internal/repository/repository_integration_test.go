//go:build integration

package repository_test

import (
	"context"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/app"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

// Run with: TEST_DB_DSN=postgres://... go test -tags integration ./internal/repository/...

var scopeSeq atomic.Int64

func init() {
	scopeSeq.Store(time.Now().UnixNano() % 1_000_000_000)
}

// uniqueID keeps scope keys of parallel runs against one database apart.
func uniqueID() int64 {
	return scopeSeq.Add(1)
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	pool, err := app.NewPool(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, logger)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))
	require.NoError(t, migrator.Close())

	return pool
}

func cleanupScope(t *testing.T, pool *pgxpool.Pool, scope model.Scope) {
	t.Cleanup(func() {
		ctx := context.Background()
		key := scope.Key()
		_, _ = pool.Exec(ctx, `DELETE FROM attendance_tokens WHERE scope_key = $1 OR scope_key LIKE $2`, key, key+":%")
		_, _ = pool.Exec(ctx, `DELETE FROM attendance_records WHERE scope_key = $1`, scope.AttendanceKey())
	})
}

func countActive(t *testing.T, pool *pgxpool.Pool, scope model.Scope) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM attendance_tokens WHERE scope_key = $1 AND active`, scope.Key()).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestTokenRepository_ConcurrentRotationsLeaveOneActiveToken(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	scope := model.LectureScope(uniqueID())
	cleanupScope(t, pool, scope)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			return repo.Rotate(ctx, &model.AttendanceToken{
				Token:     scope.Key() + "-" + strconv.Itoa(i),
				Scope:     scope,
				CreatedAt: time.Now(),
			})
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, countActive(t, pool, scope))

	active, err := repo.GetActiveByScope(ctx, scope)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, scope.Key(), active.Scope.Key())
}

func TestTokenRepository_CreateRejectsSecondActiveToken(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	scope := model.LectureScope(uniqueID())
	cleanupScope(t, pool, scope)

	require.NoError(t, repo.Create(ctx, &model.AttendanceToken{Token: scope.Key() + "-a", Scope: scope, CreatedAt: time.Now()}))
	err := repo.Create(ctx, &model.AttendanceToken{Token: scope.Key() + "-b", Scope: scope, CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Equal(t, 1, countActive(t, pool, scope))
}

func TestTokenRepository_IssueBatchKeepsExistingTokens(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	subject := model.ExamScope(uniqueID(), 1)
	cleanupScope(t, pool, subject)

	batch := func(suffix string) []*model.AttendanceToken {
		return []*model.AttendanceToken{
			{Token: subject.Key() + ":1" + suffix, Scope: subject.ForStudent(1), CreatedAt: time.Now()},
			{Token: subject.Key() + ":2" + suffix, Scope: subject.ForStudent(2), CreatedAt: time.Now()},
		}
	}

	first := batch("-first")
	require.NoError(t, repo.IssueBatch(ctx, first))

	second := batch("-second")
	require.NoError(t, repo.IssueBatch(ctx, second))

	for i := range first {
		assert.Equal(t, first[i].Token, second[i].Token, "re-issue returns the active token")
		assert.Equal(t, 1, countActive(t, pool, first[i].Scope))
	}
}

func TestTokenRepository_DeactivateScopeIncludesStudentTokens(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	examID := uniqueID()
	subject := model.ExamScope(examID, 1)
	sibling := model.ExamScope(examID, 10)
	cleanupScope(t, pool, subject)
	cleanupScope(t, pool, sibling)

	tokens := []*model.AttendanceToken{
		{Token: subject.Key() + ":1", Scope: subject.ForStudent(1), CreatedAt: time.Now()},
		{Token: subject.Key() + ":2", Scope: subject.ForStudent(2), CreatedAt: time.Now()},
		{Token: sibling.Key() + ":1", Scope: sibling.ForStudent(1), CreatedAt: time.Now()},
	}
	require.NoError(t, repo.IssueBatch(ctx, tokens))

	closed, err := repo.DeactivateScope(ctx, subject, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), closed, "subject 10 does not match the subject 1 prefix")

	stored, err := repo.GetByToken(ctx, sibling.Key()+":1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Active)
}

func TestTokenRepository_DeleteInactiveBefore(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	scope := model.LectureScope(uniqueID())
	cleanupScope(t, pool, scope)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Rotate(ctx, &model.AttendanceToken{Token: scope.Key() + "-1", Scope: scope, CreatedAt: old}))
	require.NoError(t, repo.Rotate(ctx, &model.AttendanceToken{Token: scope.Key() + "-2", Scope: scope, CreatedAt: old.Add(time.Second)}))

	deleted, err := repo.DeleteInactiveBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	gone, err := repo.GetByToken(ctx, scope.Key()+"-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Equal(t, 1, countActive(t, pool, scope))
}

func TestAttendanceRepository_InsertIsAtMostOnce(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewAttendanceRepository(pool)
	ctx := context.Background()

	scope := model.LectureScope(uniqueID())
	cleanupScope(t, pool, scope)

	var inserted atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			ok, err := repo.Insert(ctx, &model.AttendanceRecord{
				Scope:     scope,
				StudentID: 1,
				Status:    model.AttendanceStatusPresent,
				CreatedAt: time.Now(),
			})
			if ok {
				inserted.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), inserted.Load())

	count, err := repo.CountByScope(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
