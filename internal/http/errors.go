package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/timeseries"
)

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
}

// fail maps a service or repository error onto a response. Anything it does
// not recognise is a 500 whose detail only leaks in development.
func (s *Server) fail(c *fiber.Ctx, err error, msg string) error {
	var invalidField *timeseries.InvalidFieldError
	var tooLarge *timeseries.RangeTooLargeError
	switch {
	case errors.As(err, &invalidField):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid field",
			"field":   invalidField.Param,
			"value":   invalidField.Value,
			"allowed": timeseries.AllowedFields,
		})
	case errors.As(err, &tooLarge):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":           "Range too large for includeEmpty",
			"maxPoints":       tooLarge.MaxPoints,
			"requestedPoints": tooLarge.RequestedPoints,
		})
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c)
	case errors.Is(err, repository.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Duplicate record"})
	case errors.Is(err, service.ErrInvalidDays):
		return badRequest(c, err.Error())
	}

	log.Error().Err(err).Interface("request_id", c.Locals(localRequestID)).Str("path", c.Path()).Msg(msg)
	body := fiber.Map{"error": msg}
	if s.opts.Development {
		body["detail"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

// ErrorHandler renders errors that escape a handler, including fiber's own
// 404 and 405.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		body := fiber.Map{"error": msg}
		if development && code >= fiber.StatusInternalServerError {
			body["detail"] = err.Error()
		}
		return c.Status(code).JSON(body)
	}
}
