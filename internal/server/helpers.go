package server

import (
	"errors"
	"log/slog"

	"github.com/kangback324/board/internal/middleware"
	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePostID extracts :post_id. A value that can never name a post is
// answered with 404 and errResponseWritten.
func (s *Server) parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := service.ParsePostID(c.Params("post_id"))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusNotFound, err)
		return 0, errResponseWritten
	}
	return id, nil
}

// parseBody decodes a JSON or form body into dst. An empty body leaves dst
// zeroed. On failure it writes a 400 and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// respondServiceError writes err with the status its code maps to. Internal
// errors are logged with their cause; the client only sees the generic message.
func (s *Server) respondServiceError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}
