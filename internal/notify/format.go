package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
)

// PluralizeStudents returns "student" or "students" for count.
func PluralizeStudents(count int) string {
	if count == 1 {
		return "student"
	}
	return "students"
}

// FormatDateTime formats a time for presenter messages.
func FormatDateTime(t time.Time) string {
	return t.Format("02 Jan 2006 15:04")
}

// FormatSummary renders a close summary as Telegram HTML.
func FormatSummary(s *model.ScopeSummary, loc *time.Location) string {
	title := s.Title
	if title == "" {
		title = s.Scope.Key()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Attendance closed: <b>%s</b>\n\n", html.EscapeString(title))
	fmt.Fprintf(&b, "👥 Present: %d of %d %s\n", s.Present, s.Eligible, PluralizeStudents(s.Eligible))
	fmt.Fprintf(&b, "🚫 Absent: %d\n", s.Absent())

	closedAt := s.ClosedAt
	if loc != nil {
		closedAt = closedAt.In(loc)
	}
	fmt.Fprintf(&b, "🕒 Closed %s", FormatDateTime(closedAt))
	if s.ClosedBy != "" {
		fmt.Fprintf(&b, " by %s", html.EscapeString(s.ClosedBy))
	}

	return b.String()
}
