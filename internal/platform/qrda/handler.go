package qrda

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrda/qrda/internal/platform/fhir"
)

// GenerateRequest is the JSON payload for a QRDA generation call: the
// patient's FHIR bundle plus the caller's generation options.
type GenerateRequest struct {
	Bundle  *fhir.Bundle `json:"bundle"`
	Options *Options     `json:"options"`
}

// Handler provides HTTP endpoints for QRDA generation.
type Handler struct {
	generator *Generator
}

// NewHandler creates a new QRDA handler.
func NewHandler(generator *Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes registers QRDA endpoints on the provided route group.
//
//	POST /api/v1/qrda - Generate a QRDA Category I document
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/qrda", h.GenerateQRDA)
}

// GenerateQRDA handles POST /api/v1/qrda.
// It accepts a bundle and options as JSON and returns a QRDA Category I
// XML document.
func (h *Handler) GenerateQRDA(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if req.Bundle == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "bundle is required",
		})
	}

	xmlData, err := h.generator.Generate(req.Bundle, req.Options)
	if err != nil {
		var missing *MissingResourceError
		if errors.As(err, &missing) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to generate QRDA: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "application/xml", xmlData)
}
