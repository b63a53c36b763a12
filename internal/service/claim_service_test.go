package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimService_ClaimIssuesShortLivedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.tokenSvc.Rotate(ctx, model.LectureScope(lectureBatchA))
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)
	session, err := f.claimSvc.Claim(ctx, token.Token)
	require.NoError(t, err)

	assert.Len(t, session.SessionID, 32, "128-bit hex id")
	assert.Equal(t, model.LectureScope(lectureBatchA).Key(), session.Scope.Key())
	assert.Equal(t, f.clock.Now(), session.CreatedAt)
	assert.Equal(t, DefaultClaimSessionTTL, session.TTL())
	assert.Equal(t, DefaultClaimSessionTTL, f.claimSvc.SessionTTL())

	stored, err := f.sessions.GetByID(ctx, session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, session.ExpiresAt, stored.ExpiresAt)
}

func TestClaimService_SessionIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.tokenSvc.Rotate(ctx, model.LectureScope(lectureAll))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := f.claimSvc.Claim(ctx, token.Token)
		require.NoError(t, err)
		require.False(t, seen[session.SessionID])
		seen[session.SessionID] = true
	}
}

func TestClaimService_ClaimRejectsInvalidTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	scope := model.LectureScope(lectureBatchA)

	_, err := f.claimSvc.Claim(ctx, "UNKNOWN")
	require.ErrorIs(t, err, ErrNotFound)

	token, err := f.tokenSvc.Rotate(ctx, scope)
	require.NoError(t, err)

	f.clock.Advance(7 * time.Second)
	_, err = f.claimSvc.Claim(ctx, token.Token)
	require.ErrorIs(t, err, ErrExpired)

	fresh, err := f.tokenSvc.Rotate(ctx, scope)
	require.NoError(t, err)
	_, err = f.tokenSvc.Close(ctx, scope, "")
	require.NoError(t, err)

	_, err = f.claimSvc.Claim(ctx, fresh.Token)
	require.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, 0, f.sessions.len(), "failed claims store nothing")
}

func TestClaimService_ClaimRejectsStudentExamCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tokens, err := f.tokenSvc.IssueExamTokens(ctx, examMidterm, subjectMaths)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)

	_, err = f.claimSvc.Claim(ctx, tokens[0].Token)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, f.sessions.len())
}

func TestClaimService_ClaimStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sessions.failNext = errors.New("connection reset")

	token, err := f.tokenSvc.Rotate(ctx, model.LectureScope(lectureBatchA))
	require.NoError(t, err)

	_, err = f.claimSvc.Claim(ctx, token.Token)
	require.Error(t, err)
	assert.False(t, IsRescan(err))
	assert.False(t, errors.Is(err, ErrClosed))
	assert.Equal(t, 0, f.sessions.len())
}

func TestClaimService_ReapExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.tokenSvc.Rotate(ctx, model.LectureScope(lectureAll))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.claimSvc.Claim(ctx, token.Token)
		require.NoError(t, err)
	}

	f.clock.Advance(21 * time.Second)
	token, err = f.tokenSvc.Rotate(ctx, model.LectureScope(lectureAll))
	require.NoError(t, err)
	_, err = f.claimSvc.Claim(ctx, token.Token)
	require.NoError(t, err)

	deleted, err := f.claimSvc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 1, f.sessions.len())
}
