package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/service"
	"go.uber.org/zap"
)

// HandleClaim exchanges a scanned token for a short-lived claim session.
// The session id travels only in an HttpOnly cookie.
func (h *Handlers) HandleClaim(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" || len(token) > TokenMaxLength {
		return failMessage(c, fiber.StatusNotFound, MsgRescan)
	}

	session, err := h.claims.Claim(c.UserContext(), token)
	if err != nil {
		return h.claimError(c, err)
	}

	h.setSessionCookie(c, session)

	return c.JSON(ClaimResponse{Success: true, ExpiresAt: session.ExpiresAt})
}

// HandleRecord writes attendance for the caller using the claim session
// from the cookie.
func (h *Handlers) HandleRecord(c *fiber.Ctx) error {
	identity := identityFrom(c)

	result, err := h.attendance.Record(c.UserContext(), c.Cookies(SessionCookieName), identity.ID)
	if err != nil {
		return h.recordError(c, err)
	}

	return h.recordResult(c, result)
}

// HandleLectureScan is the one-shot lecture flow: the token comes in the
// body and must belong to the lecture in the path.
func (h *Handlers) HandleLectureScan(c *fiber.Ctx) error {
	identity := identityFrom(c)

	lectureID, err := paramID(c, "lectureId")
	if err != nil {
		return failError(c, fiber.StatusBadRequest, MsgInvalidQR)
	}

	token, ok := h.scannedToken(c)
	if !ok {
		return nil
	}

	result, err := h.attendance.RecordLectureScan(c.UserContext(), lectureID, token, identity.ID)
	if err != nil {
		return h.scanError(c, "lecture scan", err)
	}

	return h.recordResult(c, result)
}

// HandleMyExamQRCode returns the caller's own pre-issued token for an exam
// subject, rendered as a QR code for the invigilator to scan.
func (h *Handlers) HandleMyExamQRCode(c *fiber.Ctx) error {
	identity := identityFrom(c)

	scope, err := examScope(c)
	if err != nil {
		return failMessage(c, fiber.StatusBadRequest, MsgBadRequest)
	}

	token, err := h.tokens.ActiveToken(c.UserContext(), scope.ForStudent(identity.ID))
	if err != nil {
		if service.IsRescan(err) {
			return failMessage(c, fiber.StatusNotFound, MsgNoExamToken)
		}
		return h.internalError(c, "exam qr code", err)
	}

	return h.qrCodeResponse(c, token, 0)
}

// recordResult answers a validated submission. A duplicate is a 400 the
// client treats as informational.
func (h *Handlers) recordResult(c *fiber.Ctx, result *service.RecordResult) error {
	if result.IsDuplicate() {
		return failError(c, fiber.StatusBadRequest, MsgAlreadyMarked)
	}

	return c.JSON(RecordResponse{
		Success:     true,
		Message:     MsgMarked,
		StudentName: result.StudentName,
		Status:      result.Status,
	})
}

// scannedToken parses and validates a ScanRequest body. On failure the
// response is already written.
func (h *Handlers) scannedToken(c *fiber.Ctx) (string, bool) {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		_ = failError(c, fiber.StatusBadRequest, MsgInvalidQR)
		return "", false
	}
	if err := h.validate.Struct(req); err != nil {
		_ = failError(c, fiber.StatusBadRequest, MsgInvalidQR)
		return "", false
	}
	return req.Token, true
}

func (h *Handlers) setSessionCookie(c *fiber.Ctx, session *model.ClaimSession) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    session.SessionID,
		Path:     SessionCookiePath,
		MaxAge:   int(session.TTL() / time.Second),
		Expires:  session.ExpiresAt,
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	h.logger.Debug("Claim session issued",
		zap.String("scope", session.Scope.Key()),
		zap.Time("expires_at", session.ExpiresAt),
	)
}
