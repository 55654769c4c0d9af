package handler

import (
	"context"

	"github.com/fablecraft/backend/internal/application/generation"
	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerationUseCases is the AI generation service as seen by the HTTP layer
type GenerationUseCases interface {
	Generate(ctx context.Context, ownerID, projectID uuid.UUID, kind worldbible.Kind, req generation.GenerateRequest) (*generation.GenerateResult, error)
	Enhance(ctx context.Context, ownerID, projectID, entryID uuid.UUID, kind worldbible.Kind, req generation.EnhanceRequest) (*worldbibleapp.EntryResponse, error)
	Names(ctx context.Context, ownerID, projectID uuid.UUID, kind worldbible.Kind, req generation.NamesRequest) (*generation.NamesResponse, error)
}

// GenerationHandler handles the AI-assisted entry routes
type GenerationHandler struct {
	BaseHandler
	generationService GenerationUseCases
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(generationService GenerationUseCases) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// GenerateResponse carries a generated entry
type GenerateResponse struct {
	Entry *worldbibleapp.EntryResponse `json:"entry"`
	Saved bool                         `json:"saved"`
}

func (h *GenerationHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, worldbible.Kind, bool) {
	ownerID, projectID, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, "", false
	}
	kind, ok := kindParam(c)
	if !ok {
		h.ErrorWithCode(c, "INVALID_KIND", "Unknown world bible kind")
		return uuid.Nil, uuid.Nil, "", false
	}
	return ownerID, projectID, kind, true
}

// Generate drafts an entry from a prompt. Saved drafts answer 201.
// POST /projects/:id/{kind}/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	ownerID, projectID, kind, ok := h.target(c)
	if !ok {
		return
	}

	var req generation.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), ownerID, projectID, kind, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := GenerateResponse{Entry: result.Entry, Saved: result.Saved}
	if result.Saved {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}

// Names suggests names for a new entry
// POST /projects/:id/{kind}/names
func (h *GenerationHandler) Names(c *gin.Context) {
	ownerID, projectID, kind, ok := h.target(c)
	if !ok {
		return
	}

	var req generation.NamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	names, err := h.generationService.Names(c.Request.Context(), ownerID, projectID, kind, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, names)
}

// Enhance rewrites the description of an existing entry
// POST /projects/:id/{kind}/:entryId/enhance
func (h *GenerationHandler) Enhance(c *gin.Context) {
	ownerID, projectID, kind, ok := h.target(c)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	var req generation.EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	entry, err := h.generationService.Enhance(c.Request.Context(), ownerID, projectID, entryID, kind, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}
