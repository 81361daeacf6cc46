package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return fiber.StatusBadRequest
	case models.KindAuthentication:
		return fiber.StatusUnauthorized
	case models.KindAuthorization:
		return fiber.StatusForbidden
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindConflict, models.KindState:
		return fiber.StatusConflict
	case models.KindInvariant:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError renders a service error. Store failures are logged and
// reported with a generic message.
func respondError(c *fiber.Ctx, err error, action string) error {
	kind := models.KindOf(err)
	status := statusFor(kind)
	if status != fiber.StatusInternalServerError {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return utils.Error(c, status, appErr.Message)
		}
		return utils.Error(c, status, err.Error())
	}

	details := map[string]interface{}{"path": c.Path()}
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.ErrorWithUser(user.ID.String(), action+"_failed", err, details)
	} else {
		logger.Error(action+"_failed", err, details)
	}
	return utils.Error(c, status, strings.ReplaceAll(action, "_", " ")+" failed")
}
