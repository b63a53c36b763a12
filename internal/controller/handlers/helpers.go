package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/service"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// failMessage answers with {success:false, message}
func failMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Message: message})
}

// failError answers with {success:false, error}
func failError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: message})
}

// internalError logs the cause and hides it from the client.
func (h *Handlers) internalError(c *fiber.Ctx, op string, err error) error {
	h.logger.Error("Request failed",
		zap.String("op", op),
		zap.String("path", c.Path()),
		zap.Any("request_id", c.Locals("requestid")),
		zap.Error(err),
	)
	return failMessage(c, fiber.StatusInternalServerError, MsgInternal)
}

// claimError maps a failed claim. Not-found and expired share one message.
func (h *Handlers) claimError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsRescan(err):
		return failMessage(c, fiber.StatusNotFound, MsgRescan)
	case errors.Is(err, service.ErrClosed):
		return failMessage(c, fiber.StatusForbidden, MsgClosed)
	case errors.Is(err, service.ErrForbidden):
		return failMessage(c, fiber.StatusForbidden, MsgShowInvigilator)
	default:
		return h.internalError(c, "claim", err)
	}
}

// recordError maps a failed submission through the claim session.
func (h *Handlers) recordError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsRescan(err):
		return failMessage(c, fiber.StatusNotFound, MsgRescan)
	case errors.Is(err, service.ErrClosed):
		return failMessage(c, fiber.StatusForbidden, MsgClosed)
	case errors.Is(err, service.ErrForbidden):
		return failError(c, fiber.StatusForbidden, MsgNotInScope)
	default:
		return h.internalError(c, "record", err)
	}
}

// scanError maps a failed one-shot scan, by a student in a lecture or by an
// invigilator in an exam. Client errors are 400.
func (h *Handlers) scanError(c *fiber.Ctx, op string, err error) error {
	switch {
	case service.IsRescan(err):
		return failError(c, fiber.StatusBadRequest, MsgInvalidQR)
	case errors.Is(err, service.ErrClosed):
		return failMessage(c, fiber.StatusForbidden, MsgClosed)
	case errors.Is(err, service.ErrForbidden):
		return failError(c, fiber.StatusBadRequest, MsgNotInScope)
	default:
		return h.internalError(c, op, err)
	}
}

// presenterError maps failures of presenter endpoints.
func (h *Handlers) presenterError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotPresenter):
		return failMessage(c, fiber.StatusForbidden, MsgNotPresenter)
	case errors.Is(err, service.ErrUnknownScope):
		return failMessage(c, fiber.StatusNotFound, MsgUnknownScope)
	case errors.Is(err, service.ErrInvalidScope):
		return failMessage(c, fiber.StatusBadRequest, MsgInvalidScope)
	default:
		return h.internalError(c, op, err)
	}
}

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// lectureScope builds the scope addressed by :lectureId.
func lectureScope(c *fiber.Ctx) (model.Scope, error) {
	id, err := paramID(c, "lectureId")
	if err != nil {
		return model.Scope{}, err
	}
	return model.LectureScope(id), nil
}

// examScope builds the scope addressed by :examId and :subjectId.
func examScope(c *fiber.Ctx) (model.Scope, error) {
	examID, err := paramID(c, "examId")
	if err != nil {
		return model.Scope{}, err
	}
	subjectID, err := paramID(c, "subjectId")
	if err != nil {
		return model.Scope{}, err
	}
	return model.ExamScope(examID, subjectID), nil
}

// qrDataURL renders content as a PNG data URL.
func qrDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, QRCodeSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
