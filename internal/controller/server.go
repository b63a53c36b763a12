package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/samanvay/attendance_service/internal/controller/handlers"
	"go.uber.org/zap"
)

// ServerOptions tune the HTTP surface.
type ServerOptions struct {
	CORSOrigins []string

	// ClaimRateLimit is the number of claims one caller may make per
	// ClaimRateWindow. Zero disables the limiter.
	ClaimRateLimit  int
	ClaimRateWindow time.Duration
}

// HTTPController owns the Fiber app and its routes.
type HTTPController struct {
	app      *fiber.App
	handlers *handlers.Handlers
	opts     ServerOptions
	logger   *zap.Logger
}

func NewHTTPController(h *handlers.Handlers, opts ServerOptions, logger *zap.Logger) *HTTPController {
	app := fiber.New(fiber.Config{
		AppName:               "samanvay-attendance",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(logger),
	})

	c := &HTTPController{
		app:      app,
		handlers: h,
		opts:     opts,
		logger:   logger,
	}
	c.registerRoutes()

	return c
}

// App exposes the Fiber app, mostly for tests.
func (c *HTTPController) App() *fiber.App {
	return c.app
}

func (c *HTTPController) registerRoutes() {
	c.app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	c.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	c.app.Use(requestLogger(c.logger))

	if len(c.opts.CORSOrigins) > 0 {
		c.app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(c.opts.CORSOrigins, ","),
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowMethods:     "GET, POST, OPTIONS",
			AllowCredentials: true,
		}))
	}

	c.app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	api := c.app.Group("/api", c.handlers.Authenticate())

	// Student flow
	student := c.handlers.RequireStudent()
	api.Post("/attendance/claim/:token", student, c.claimLimiter(), c.handlers.HandleClaim)
	api.Post("/attendance/record", student, c.handlers.HandleRecord)
	api.Post("/lectures/:lectureId/qr-attendance", student, c.handlers.HandleLectureScan)
	api.Get("/exams/:examId/subjects/:subjectId/qr/mine", student, c.handlers.HandleMyExamQRCode)

	// Presenter flow
	presenter := c.handlers.RequirePresenter()
	api.Post("/lectures/:lectureId/qr/rotate", presenter, c.handlers.HandleRotateLecture)
	api.Post("/lectures/:lectureId/qr/close", presenter, c.handlers.HandleCloseLecture)
	api.Get("/lectures/:lectureId/attendance", presenter, c.handlers.HandleLectureAttendance)
	api.Post("/exams/:examId/subjects/:subjectId/qr/issue", presenter, c.handlers.HandleIssueExam)
	api.Post("/exams/:examId/subjects/:subjectId/qr/scan", presenter, c.handlers.HandleExamScan)
	api.Post("/exams/:examId/subjects/:subjectId/qr/close", presenter, c.handlers.HandleCloseExam)
	api.Get("/exams/:examId/subjects/:subjectId/attendance", presenter, c.handlers.HandleExamAttendance)
}

func (c *HTTPController) claimLimiter() fiber.Handler {
	if c.opts.ClaimRateLimit <= 0 {
		return func(ctx *fiber.Ctx) error { return ctx.Next() }
	}

	return limiter.New(limiter.Config{
		Max:          c.opts.ClaimRateLimit,
		Expiration:   c.opts.ClaimRateWindow,
		KeyGenerator: handlers.IdentityKey,
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(handlers.ErrorResponse{
				Success: false,
				Message: "Too many scans, please wait a moment",
			})
		},
	})
}

// Listen blocks serving addr until Shutdown.
func (c *HTTPController) Listen(addr string) error {
	c.logger.Info("HTTP server listening", zap.String("addr", addr))
	return c.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (c *HTTPController) Shutdown(ctx context.Context) error {
	return c.app.ShutdownWithContext(ctx)
}

// requestLogger writes one zap line per request, levelled by status.
func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", ctx.IP()),
			zap.Any("request_id", ctx.Locals("requestid")),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}

		return err
	}
}

// errorHandler renders errors that escape handlers with the JSON envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := handlers.MsgInternal

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("Unhandled request error",
				zap.String("path", ctx.Path()),
				zap.Error(err),
			)
		}

		return ctx.Status(code).JSON(handlers.ErrorResponse{Success: false, Message: message})
	}
}
