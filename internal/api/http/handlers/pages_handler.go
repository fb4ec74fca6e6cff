package handlers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// PagesHandler serves UI entry points after the page gate has run.
type PagesHandler struct {
	uiDir string
}

// NewPagesHandler constructs handler. With an empty uiDir pages render a JSON
// descriptor instead of the UI bundle.
func NewPagesHandler(uiDir string) *PagesHandler {
	return &PagesHandler{uiDir: uiDir}
}

// Serve renders the requested page.
func (h *PagesHandler) Serve(c *fiber.Ctx) error {
	if h.uiDir != "" {
		return c.SendFile(filepath.Join(h.uiDir, "index.html"))
	}
	identity, _ := auth.IdentityFromContext(c)
	return c.JSON(fiber.Map{
		"page": c.Path(),
		"role": identity.Role,
	})
}
