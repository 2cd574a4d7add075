package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docrender/internal/domain"
	"docrender/internal/export"
	"docrender/internal/infra/logging"
)

// Exporter renders stored form responses.
type Exporter interface {
	Export(ctx context.Context, id string) (export.Document, error)
}

// HandleResponseExport serves GET /responses/:id/pdf. A nil exporter means
// no response database is configured.
func HandleResponseExport(exp Exporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if exp == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Response export is not configured")
		}
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid response id")
		}

		doc, err := exp.Export(c.UserContext(), id)
		if errors.Is(err, domain.ErrResponseNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Response not found")
		}
		if err != nil {
			return renderFailure(c, err)
		}

		logging.Info("Response exported", "response_id", id, "filename", doc.Filename, "size_bytes", doc.SizeBytes, "request_id", requestID(c))
		return sendPDF(c, doc.Filename, doc.Bytes)
	}
}
