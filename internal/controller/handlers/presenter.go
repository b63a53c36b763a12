package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

// HandleRotateLecture mints the next lecture token. Presenter screens call
// it every few seconds; the previous code stops working immediately.
func (h *Handlers) HandleRotateLecture(c *fiber.Ctx) error {
	scope, ok := h.authorizedScope(c, lectureScope)
	if !ok {
		return nil
	}

	token, err := h.tokens.Rotate(c.UserContext(), scope)
	if err != nil {
		return h.presenterError(c, "rotate", err)
	}

	return h.qrCodeResponse(c, token, h.tokens.LectureTokenTTL())
}

// HandleCloseLecture ends attendance for a lecture.
func (h *Handlers) HandleCloseLecture(c *fiber.Ctx) error {
	return h.closeScope(c, lectureScope)
}

// HandleLectureAttendance lists students recorded so far.
func (h *Handlers) HandleLectureAttendance(c *fiber.Ctx) error {
	return h.listScope(c, lectureScope)
}

// HandleIssueExam pre-issues one token per eligible student.
func (h *Handlers) HandleIssueExam(c *fiber.Ctx) error {
	scope, ok := h.authorizedScope(c, examScope)
	if !ok {
		return nil
	}

	tokens, err := h.tokens.IssueExamTokens(c.UserContext(), scope.ExamID, scope.SubjectID)
	if err != nil {
		return h.presenterError(c, "issue exam tokens", err)
	}

	issued := make([]IssuedToken, 0, len(tokens))
	for _, t := range tokens {
		var studentID int64
		if t.Scope.StudentID != nil {
			studentID = *t.Scope.StudentID
		}
		issued = append(issued, IssuedToken{StudentID: studentID, Token: t.Token})
	}

	return c.Status(fiber.StatusCreated).JSON(IssueResponse{
		Success: true,
		Scope:   scope.Key(),
		Count:   len(issued),
		Tokens:  issued,
	})
}

// HandleExamScan records the student whose pre-issued code the invigilator
// scanned. The token must belong to the exam subject in the path.
func (h *Handlers) HandleExamScan(c *fiber.Ctx) error {
	scope, ok := h.authorizedScope(c, examScope)
	if !ok {
		return nil
	}

	token, ok := h.scannedToken(c)
	if !ok {
		return nil
	}

	result, err := h.attendance.RecordExamScan(c.UserContext(), scope, token)
	if err != nil {
		return h.scanError(c, "exam scan", err)
	}

	h.logger.Debug("Exam code scanned",
		zap.String("scope", scope.Key()),
		zap.Int64("invigilator_id", identityFrom(c).ID),
		zap.String("student", result.StudentName),
	)

	return h.recordResult(c, result)
}

// HandleCloseExam ends attendance for an exam subject, including every
// per-student token.
func (h *Handlers) HandleCloseExam(c *fiber.Ctx) error {
	return h.closeScope(c, examScope)
}

// HandleExamAttendance lists students recorded for an exam subject.
func (h *Handlers) HandleExamAttendance(c *fiber.Ctx) error {
	return h.listScope(c, examScope)
}

func (h *Handlers) closeScope(c *fiber.Ctx, parse func(*fiber.Ctx) (model.Scope, error)) error {
	scope, ok := h.authorizedScope(c, parse)
	if !ok {
		return nil
	}

	identity := identityFrom(c)
	summary, err := h.tokens.Close(c.UserContext(), scope, closedBy(identity))
	if err != nil {
		return h.presenterError(c, "close", err)
	}

	h.logger.Info("Attendance closed",
		zap.String("scope", scope.Key()),
		zap.Int64("presenter_id", identity.ID),
		zap.Int("present", summary.Present),
		zap.Int("eligible", summary.Eligible),
	)

	return c.JSON(CloseResponse{Success: true, Summary: summary})
}

func (h *Handlers) listScope(c *fiber.Ctx, parse func(*fiber.Ctx) (model.Scope, error)) error {
	scope, ok := h.authorizedScope(c, parse)
	if !ok {
		return nil
	}

	records, err := h.attendance.ListScope(c.UserContext(), scope)
	if err != nil {
		return h.internalError(c, "list attendance", err)
	}

	return c.JSON(AttendanceListResponse{
		Success: true,
		Scope:   scope.Key(),
		Count:   len(records),
		Records: records,
	})
}

// authorizedScope parses the scope from the path and checks that the
// caller may manage it. On failure the response is already written.
func (h *Handlers) authorizedScope(c *fiber.Ctx, parse func(*fiber.Ctx) (model.Scope, error)) (model.Scope, bool) {
	scope, err := parse(c)
	if err != nil {
		_ = failMessage(c, fiber.StatusBadRequest, MsgBadRequest)
		return model.Scope{}, false
	}

	if err := h.tokens.AuthorizePresenter(c.UserContext(), *identityFrom(c), scope); err != nil {
		_ = h.presenterError(c, "authorize presenter", err)
		return model.Scope{}, false
	}

	return scope, true
}

// qrCodeResponse renders the token. A zero ttl means the token is not aged.
func (h *Handlers) qrCodeResponse(c *fiber.Ctx, token *model.AttendanceToken, ttl time.Duration) error {
	image, err := qrDataURL(token.Token)
	if err != nil {
		return h.internalError(c, "render qr code", err)
	}

	return c.JSON(QRCodeResponse{
		Success:    true,
		Token:      token.Token,
		Scope:      token.Scope.Key(),
		CreatedAt:  token.CreatedAt,
		ExpiresAt:  token.ExpiresAt(ttl),
		TTLSeconds: int(ttl / time.Second),
		QRCode:     image,
	})
}

func closedBy(identity *model.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return string(identity.Role)
}
