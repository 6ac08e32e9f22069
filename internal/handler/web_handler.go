package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/calabozos/calabozos-backend/internal/service"
	"github.com/calabozos/calabozos-backend/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebHandler renders the HTML pages.
type WebHandler struct {
	classService *service.ClassService
	log          zerolog.Logger
}

// NewWebHandler creates a new WebHandler.
func NewWebHandler(classService *service.ClassService, log zerolog.Logger) *WebHandler {
	return &WebHandler{
		classService: classService,
		log:          log.With().Str("component", "web_handler").Logger(),
	}
}

// ClassesPage godoc
// GET /calabozos/classes
// Syncs the class list and renders it as HTML.
func (h *WebHandler) ClassesPage(c *gin.Context) {
	classes, err := h.classService.SyncAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error rendering classes page")
		render(c, http.StatusInternalServerError, view.ErrorPage("Failed to retrieve classes: "+err.Error()))
		return
	}

	render(c, http.StatusOK, view.ClassesPage(classes))
}

func render(c *gin.Context, status int, page templ.Component) {
	templ.Handler(page, templ.WithStatus(status)).ServeHTTP(c.Writer, c.Request)
}
