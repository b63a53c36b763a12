package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingSender struct {
	messages []*bot.SendMessageParams
	photos   []*bot.SendPhotoParams
	err      error
}

func (s *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.messages = append(s.messages, params)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: len(s.messages)}, nil
}

func (s *recordingSender) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	s.photos = append(s.photos, params)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: len(s.photos)}, nil
}

func testSummary() *model.ScopeSummary {
	return &model.ScopeSummary{
		Scope:    model.LectureScope(100),
		Title:    "Lecture #100 (batch <A>)",
		Present:  38,
		Eligible: 40,
		ClosedAt: time.Date(2026, 3, 2, 4, 15, 0, 0, time.UTC),
		ClosedBy: "Prof. Sharma",
	}
}

func TestFormatSummary(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)

	text := FormatSummary(testSummary(), ist)

	assert.Contains(t, text, "<b>Lecture #100 (batch &lt;A&gt;)</b>")
	assert.Contains(t, text, "Present: 38 of 40 students")
	assert.Contains(t, text, "Absent: 2")
	assert.Contains(t, text, "Closed 02 Mar 2026 09:45 by Prof. Sharma")
}

func TestFormatSummary_FallsBackToScopeKey(t *testing.T) {
	summary := &model.ScopeSummary{Scope: model.ExamScope(3, 7), Eligible: 1}

	text := FormatSummary(summary, nil)

	assert.Contains(t, text, "<b>exam:3:7</b>")
	assert.Contains(t, text, "of 1 student\n")
}

func TestTelegramNotifier_SendsCardWithCaption(t *testing.T) {
	sender := &recordingSender{}
	n := newTelegramNotifier(sender, -100123, nil, zaptest.NewLogger(t))

	require.NoError(t, n.NotifyScopeClosed(context.Background(), testSummary()))

	require.Len(t, sender.photos, 1)
	assert.Empty(t, sender.messages)

	photo := sender.photos[0]
	assert.Equal(t, int64(-100123), photo.ChatID)
	assert.Equal(t, models.ParseModeHTML, photo.ParseMode)
	assert.Contains(t, photo.Caption, "Attendance closed")

	upload, ok := photo.Photo.(*models.InputFileUpload)
	require.True(t, ok)
	assert.Equal(t, "attendance.png", upload.Filename)
}

func TestRenderSummaryCard(t *testing.T) {
	tests := []struct {
		name    string
		summary *model.ScopeSummary
	}{
		{name: "regular", summary: testSummary()},
		{name: "nobody eligible", summary: &model.ScopeSummary{Scope: model.ExamScope(3, 7)}},
		{name: "long title", summary: &model.ScopeSummary{Title: strings.Repeat("Semester end examination ", 5), Present: 1, Eligible: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := RenderSummaryCard(tt.summary, time.UTC)
			require.NoError(t, err)
			require.Greater(t, len(png), 8)
			assert.Equal(t, "\x89PNG\r\n\x1a\n", string(png[:8]))
		})
	}
}

func TestAttendanceRatio(t *testing.T) {
	assert.Zero(t, attendanceRatio(&model.ScopeSummary{}))
	assert.InDelta(t, 0.95, attendanceRatio(testSummary()), 1e-9)
	assert.Equal(t, 1.0, attendanceRatio(&model.ScopeSummary{Present: 5, Eligible: 4}))
}

func TestTelegramNotifier_PropagatesSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("bad gateway")}
	n := newTelegramNotifier(sender, 1, nil, zaptest.NewLogger(t))

	err := n.NotifyScopeClosed(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send close summary")
}
