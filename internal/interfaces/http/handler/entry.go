package handler

import (
	"io"

	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EntryHandler serves the world bible CRUD routes of every kind. The kind
// comes from the route group, see WithKind.
type EntryHandler struct {
	BaseHandler
	registry *worldbibleapp.Registry
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(registry *worldbibleapp.Registry) *EntryHandler {
	return &EntryHandler{registry: registry}
}

// entryScope is the resolved owner, project and kind service of a request
type entryScope struct {
	ownerID   uuid.UUID
	projectID uuid.UUID
	service   worldbibleapp.EntryService
}

func (h *EntryHandler) scope(c *gin.Context) (entryScope, bool) {
	ownerID, projectID, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return entryScope{}, false
	}
	kind, ok := kindParam(c)
	if !ok {
		h.ErrorWithCode(c, "INVALID_KIND", "Unknown world bible kind")
		return entryScope{}, false
	}
	svc, err := h.registry.Get(kind)
	if err != nil {
		h.HandleError(c, err)
		return entryScope{}, false
	}
	return entryScope{ownerID: ownerID, projectID: projectID, service: svc}, true
}

func (h *EntryHandler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return uuid.Nil, false
	}
	return id, true
}

// payload reads the raw JSON body; attributes are decoded per kind
func (h *EntryHandler) payload(c *gin.Context) (worldbibleapp.EntryPayload, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BindError(c, err)
		return worldbibleapp.EntryPayload{}, false
	}
	p, err := worldbibleapp.ParseEntryPayload(body)
	if err != nil {
		h.HandleError(c, err)
		return worldbibleapp.EntryPayload{}, false
	}
	return p, true
}

// List lists a project's entries of one kind
// GET /projects/:id/{kind}
func (h *EntryHandler) List(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}

	var filter worldbibleapp.EntryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	entries, total, err := s.service.List(c.Request.Context(), s.ownerID, s.projectID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := effectivePaging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, entries, total, page, pageSize)
}

// Create adds an entry to a project
// POST /projects/:id/{kind}
func (h *EntryHandler) Create(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}
	p, ok := h.payload(c)
	if !ok {
		return
	}

	entry, err := s.service.Create(c.Request.Context(), s.ownerID, s.projectID, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// GetByID retrieves one entry
// GET /projects/:id/{kind}/:entryId
func (h *EntryHandler) GetByID(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := s.service.GetByID(c.Request.Context(), s.ownerID, s.projectID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Update applies a partial update to an entry
// PUT /projects/:id/{kind}/:entryId
func (h *EntryHandler) Update(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}
	p, ok := h.payload(c)
	if !ok {
		return
	}

	entry, err := s.service.Update(c.Request.Context(), s.ownerID, s.projectID, id, p)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Delete removes an entry
// DELETE /projects/:id/{kind}/:entryId
func (h *EntryHandler) Delete(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	if err := s.service.Delete(c.Request.Context(), s.ownerID, s.projectID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// BulkDelete removes several entries at once
// POST /projects/:id/{kind}/bulk-delete
func (h *EntryHandler) BulkDelete(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}

	var req worldbibleapp.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := s.service.BulkDelete(c.Request.Context(), s.ownerID, s.projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// PresignImage returns an upload URL for the entry image
// POST /projects/:id/{kind}/:entryId/image
func (h *EntryHandler) PresignImage(c *gin.Context) {
	s, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	var req worldbibleapp.ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	upload, err := s.service.PresignImage(c.Request.Context(), s.ownerID, s.projectID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, upload)
}

// KindSchema describes the fields of one kind
type KindSchema struct {
	Kind    worldbible.Kind `json:"kind"`
	Segment string          `json:"segment"`
	Label   string          `json:"label"`
	Fields  []FieldSchema   `json:"fields"`
}

// FieldSchema is one kind-specific attribute
type FieldSchema struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	List  bool   `json:"list"`
}

// Kinds lists every served kind with its attribute fields
// GET /kinds
func (h *EntryHandler) Kinds(c *gin.Context) {
	services := h.registry.All()
	out := make([]KindSchema, 0, len(services))
	for _, svc := range services {
		kind := svc.Kind()
		schema := KindSchema{Kind: kind, Segment: kind.PathSegment(), Label: kind.Label()}
		for _, f := range svc.Schema() {
			schema.Fields = append(schema.Fields, FieldSchema{Key: f.Key, Label: f.Label, List: f.IsList})
		}
		out = append(out, schema)
	}
	h.Success(c, out)
}
