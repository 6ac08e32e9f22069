package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calabozos/calabozos-backend/internal/response"
	"github.com/calabozos/calabozos-backend/internal/service"
	"github.com/calabozos/calabozos-backend/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ClassHandler serves the class list and the per-class upstream lookups.
type ClassHandler struct {
	classService *service.ClassService
	log          zerolog.Logger
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService, log zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		classService: classService,
		log:          log.With().Str("component", "class_handler").Logger(),
	}
}

// detailLookup fetches one upstream document for a class index.
type detailLookup func(ctx context.Context, index string) (json.RawMessage, bool, error)

// SyncClasses godoc
// GET /api/calabozos/classes
// Pulls the upstream class list, stores unseen classes and returns them.
func (h *ClassHandler) SyncClasses(c *gin.Context) {
	classes, err := h.classService.SyncAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error retrieving classes")
		response.FailWithMessage(c, http.StatusInternalServerError, errorCode(err),
			"Failed to retrieve classes: "+err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// StoredClasses godoc
// GET /api/calabozos/stored-classes
// Returns the locally stored classes without contacting the upstream API.
func (h *ClassHandler) StoredClasses(c *gin.Context) {
	classes, err := h.classService.StoredClasses(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error listing stored classes")
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInternal,
			"Failed to retrieve stored classes: "+err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetClass godoc
// GET /api/calabozos/classes/:index
func (h *ClassHandler) GetClass(c *gin.Context) {
	h.serveDetail(c, "class", "class details", h.classService.Detail)
}

// GetSpellcasting godoc
// GET /api/calabozos/classes/:index/spellcasting
func (h *ClassHandler) GetSpellcasting(c *gin.Context) {
	h.serveDetail(c, "spellcasting", "spellcasting information", h.classService.Spellcasting)
}

// GetMulticlassing godoc
// GET /api/calabozos/classes/:index/multiclassing
func (h *ClassHandler) GetMulticlassing(c *gin.Context) {
	h.serveDetail(c, "multiclassing", "multiclassing information", h.classService.Multiclassing)
}

// GetSubclasses godoc
// GET /api/calabozos/classes/:index/subclasses
func (h *ClassHandler) GetSubclasses(c *gin.Context) {
	h.serveDetail(c, "subclasses", "subclasses information", h.classService.Subclasses)
}

// GetSpells godoc
// GET /api/calabozos/classes/:index/spells
func (h *ClassHandler) GetSpells(c *gin.Context) {
	h.serveDetail(c, "spells", "spells information", h.classService.Spells)
}

// GetFeatures godoc
// GET /api/calabozos/classes/:index/features
func (h *ClassHandler) GetFeatures(c *gin.Context) {
	h.serveDetail(c, "features", "features information", h.classService.Features)
}

// GetProficiencies godoc
// GET /api/calabozos/classes/:index/proficiencies
func (h *ClassHandler) GetProficiencies(c *gin.Context) {
	h.serveDetail(c, "proficiencies", "proficiencies information", h.classService.Proficiencies)
}

// serveDetail runs lookup for the :index path param and wraps the upstream
// document under key.
func (h *ClassHandler) serveDetail(c *gin.Context, key, what string, lookup detailLookup) {
	index := c.Param("index")

	doc, found, err := lookup(c.Request.Context(), index)
	if err != nil {
		if errors.Is(err, upstream.ErrInvalidArgument) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
			return
		}

		h.log.Error().Err(err).Str("class_id", index).Msg("Error retrieving " + what)
		response.FailWithMessage(c, http.StatusInternalServerError, errorCode(err),
			"Failed to retrieve "+what+": "+err.Error())
		return
	}

	if !found {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, notFoundMessage(key))
		return
	}

	response.Success(c, http.StatusOK, gin.H{key: doc})
}

func notFoundMessage(key string) string {
	if key == "class" {
		return "Class not found"
	}
	return "Class " + key + " not found"
}

// errorCode tells upstream failures apart from local ones.
func errorCode(err error) response.ErrCode {
	var connErr *upstream.ConnectionError
	switch {
	case errors.As(err, &connErr),
		errors.Is(err, upstream.ErrInvalidBody),
		errors.Is(err, service.ErrInvalidUpstreamResponse):
		return response.ErrUpstream
	default:
		return response.ErrInternal
	}
}
