package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"db-rag-be/pkg/rag/ragerr"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into a
// consistent JSON envelope. Panics are recovered by fiber's own middleware
// upstream; this only shapes the response.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case errors.Is(err, ragerr.ErrNoRelevantTables):
			code = fiber.StatusNotFound
		case errors.Is(err, ragerr.ErrQueryValidation):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, ragerr.ErrProvider):
			code = fiber.StatusBadGateway
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
