package worldbible

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/google/uuid"
)

// EntryPayload is a create or update body. The shared fields are decoded
// into typed pointers; the whole body is kept so the kind-specific
// attributes can be decoded onto the entry.
type EntryPayload struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Tags        *shared.StringList `json:"tags"`
	ImageKey    *string            `json:"image_key"`

	raw json.RawMessage
}

// ParseEntryPayload decodes a JSON object body
func ParseEntryPayload(data []byte) (EntryPayload, error) {
	var p EntryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return EntryPayload{}, invalidPayload(err)
	}
	p.raw = append(json.RawMessage(nil), data...)
	return p, nil
}

// NewEntryPayload builds a payload from a map of field values
func NewEntryPayload(fields map[string]any) (EntryPayload, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return EntryPayload{}, invalidPayload(err)
	}
	return ParseEntryPayload(data)
}

// Raw returns the original body
func (p EntryPayload) Raw() json.RawMessage {
	return p.raw
}

// decodeAttributes overlays the body onto attrs; absent keys keep their values
func decodeAttributes[A worldbible.Attributes](p EntryPayload, attrs *A) error {
	if len(p.raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.raw, attrs); err != nil {
		return invalidPayload(err)
	}
	return nil
}

func invalidPayload(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Field %q has the wrong type", typeErr.Field))
	}
	return shared.NewDomainError("INVALID_INPUT", "Request body must be a JSON object")
}

// EntryListFilter represents list query parameters
type EntryListFilter struct {
	Search   string `form:"search"`
	Tag      string `form:"tag"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// BulkDeleteRequest lists the entries to remove
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
}

// BulkDeleteResponse reports how many entries were removed
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ImageUploadRequest asks for a presigned upload URL
type ImageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned URL and the stored key
type ImageUploadResponse struct {
	UploadURL   string    `json:"upload_url"`
	ImageKey    string    `json:"image_key"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// EntryResponse is an entry of any kind. The attributes are flattened into
// the top-level JSON object next to the shared fields.
type EntryResponse struct {
	ID          uuid.UUID             `json:"id"`
	ProjectID   uuid.UUID             `json:"project_id"`
	OwnerID     uuid.UUID             `json:"owner_id"`
	Kind        worldbible.Kind       `json:"kind"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Tags        shared.StringList     `json:"tags"`
	ImageKey    string                `json:"image_key,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Version     int                   `json:"version"`
	Attributes  worldbible.Attributes `json:"-"`
}

// Fields returns the kind-specific attributes in display order
func (r EntryResponse) Fields() []worldbible.Field {
	if r.Attributes == nil {
		return nil
	}
	return r.Attributes.Fields()
}

// MarshalJSON flattens the attributes; shared fields win on key clashes
func (r EntryResponse) MarshalJSON() ([]byte, error) {
	type common EntryResponse
	base, err := json.Marshal(common(r))
	if err != nil {
		return nil, err
	}
	if r.Attributes == nil {
		return base, nil
	}

	merged := make(map[string]json.RawMessage)
	attrs, err := json.Marshal(r.Attributes)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attrs, &merged); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// ToEntryResponse converts a domain entry to a response
func ToEntryResponse[A worldbible.Attributes](e *worldbible.Entry[A]) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		OwnerID:     e.OwnerID,
		Kind:        e.Kind(),
		Name:        e.Name,
		Description: e.Description,
		Tags:        shared.NewStringList(e.Tags...),
		ImageKey:    e.ImageKey,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
		Attributes:  e.Attributes,
	}
}
