package handlers

import (
	"errors"

	"storefront/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorBody is the body of every failed response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func respondList(c *fiber.Ctx, data interface{}, count int) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Count: &count})
}

func respondMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Message: message})
}

// ErrorHandler turns any error returned by a handler into an ErrorBody with
// the status of its kind. Internal causes are logged, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := apperr.PublicMessage(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		kind := apperr.KindOf(err)
		status = kind.HTTPStatus()
		requestID, _ := c.Locals("requestid").(string)
		if kind == apperr.KindInternal {
			log.Error().Err(err).
				Str("request_id", requestID).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		} else {
			log.Debug().Stringer("kind", kind).
				Str("request_id", requestID).
				Str("path", c.Path()).
				Msg(message)
		}
	}
	return c.Status(status).JSON(ErrorBody{Success: false, Message: message})
}

func invalidBody(err error) error {
	log.Debug().Err(err).Msg("invalid request body")
	return apperr.Validation("Invalid request body")
}
