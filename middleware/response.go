package middleware

import (
	"flexvest/utils/apperror"
	"flexvest/utils/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusFor maps an error's kind to an HTTP status.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindStateConflict:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindAccountInactive:
		return fiber.StatusForbidden
	case apperror.KindExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes err in the standard envelope. Caller-side errors carry
// their message and code; anything else is logged and answered generically.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"user_id": UserID(c),
			"code":    apperror.CodeOf(err),
		}).WithError(err).Error("request failed")
	}
	return JsonResponse(c, status, false, apperror.PublicMessage(err), fiber.Map{"code": apperror.CodeOf(err)})
}
