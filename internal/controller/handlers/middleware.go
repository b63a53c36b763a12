package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

// Authenticate verifies the bearer token and stores the caller identity in
// the request locals. A missing or invalid token ends the request with 401.
func (h *Handlers) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return failMessage(c, fiber.StatusUnauthorized, MsgUnauthorized)
		}

		identity, err := h.identities.Parse(raw)
		if err != nil {
			h.logger.Debug("Bearer token rejected",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return failMessage(c, fiber.StatusUnauthorized, MsgUnauthorized)
		}

		c.Locals(localsIdentity, identity)
		return c.Next()
	}
}

// RequireStudent admits only student callers.
func (h *Handlers) RequireStudent() fiber.Handler {
	return requireRole(func(r model.Role) bool { return r == model.RoleStudent })
}

// RequirePresenter admits tutors and admins. Per-scope ownership is checked
// by the handlers.
func (h *Handlers) RequirePresenter() fiber.Handler {
	return requireRole(model.Role.IsPresenter)
}

func requireRole(allowed func(model.Role) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if identity == nil {
			return failMessage(c, fiber.StatusUnauthorized, MsgUnauthorized)
		}
		if !allowed(identity.Role) {
			return failMessage(c, fiber.StatusForbidden, MsgForbiddenRole)
		}
		return c.Next()
	}
}

// identityFrom returns the identity stored by Authenticate, or nil.
func identityFrom(c *fiber.Ctx) *model.Identity {
	identity, _ := c.Locals(localsIdentity).(*model.Identity)
	return identity
}

// IdentityKey keys per-caller middleware such as the rate limiter. It falls
// back to the client IP for anonymous requests.
func IdentityKey(c *fiber.Ctx) string {
	if identity := identityFrom(c); identity != nil {
		return "user:" + string(identity.Role) + ":" + strconv.FormatInt(identity.ID, 10)
	}
	return "ip:" + c.IP()
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
