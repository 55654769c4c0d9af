package worldbible

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// exportPageSize is the page size used when reading every entry of a project
const exportPageSize = shared.MaxPageSize

// ProjectFinder loads the project an entry belongs to
type ProjectFinder interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error)
}

// ImageStore presigns uploads and removes stored images
type ImageStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedUpload, error)
	Delete(ctx context.Context, key string) error
}

// EntryService is the kind-agnostic view of Service, used by handlers,
// generation and export
type EntryService interface {
	Kind() worldbible.Kind
	Schema() []worldbible.Field
	Draft(ownerID, projectID uuid.UUID, payload EntryPayload) (*EntryResponse, error)
	Create(ctx context.Context, ownerID, projectID uuid.UUID, payload EntryPayload) (*EntryResponse, error)
	GetByID(ctx context.Context, ownerID, projectID, id uuid.UUID) (*EntryResponse, error)
	List(ctx context.Context, ownerID, projectID uuid.UUID, filter EntryListFilter) ([]EntryResponse, int64, error)
	ListAll(ctx context.Context, ownerID, projectID uuid.UUID) ([]EntryResponse, error)
	Update(ctx context.Context, ownerID, projectID, id uuid.UUID, payload EntryPayload) (*EntryResponse, error)
	Delete(ctx context.Context, ownerID, projectID, id uuid.UUID) error
	BulkDelete(ctx context.Context, ownerID, projectID uuid.UUID, req BulkDeleteRequest) (*BulkDeleteResponse, error)
	PresignImage(ctx context.Context, ownerID, projectID, id uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error)
}

// Service handles world bible operations for entries with attributes A
type Service[A worldbible.Attributes] struct {
	kind      worldbible.Kind
	entryRepo worldbible.EntryRepository[A]
	projects  ProjectFinder
	images    ImageStore
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new Service. images and publisher may be nil.
func NewService[A worldbible.Attributes](
	entryRepo worldbible.EntryRepository[A],
	projects ProjectFinder,
	images ImageStore,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service[A] {
	if logger == nil {
		logger = zap.NewNop()
	}
	var attrs A
	return &Service[A]{
		kind:      attrs.Kind(),
		entryRepo: entryRepo,
		projects:  projects,
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

// Kind returns the entry kind the service manages
func (s *Service[A]) Kind() worldbible.Kind {
	return s.kind
}

// Schema lists the kind-specific fields with their zero values
func (s *Service[A]) Schema() []worldbible.Field {
	var attrs A
	return attrs.Fields()
}

// Draft validates a payload as a new entry without persisting it
func (s *Service[A]) Draft(ownerID, projectID uuid.UUID, payload EntryPayload) (*EntryResponse, error) {
	details, err := detailsFrom(worldbible.Details{}, payload)
	if err != nil {
		return nil, err
	}
	var attrs A
	if err := decodeAttributes(payload, &attrs); err != nil {
		return nil, err
	}
	entry, err := worldbible.NewEntry(ownerID, projectID, details, attrs)
	if err != nil {
		return nil, err
	}
	entry.ClearDomainEvents()
	return ToEntryResponse(entry), nil
}

// Create creates an entry in a project that is not archived
func (s *Service[A]) Create(ctx context.Context, ownerID, projectID uuid.UUID, payload EntryPayload) (*EntryResponse, error) {
	p, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsArchived() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add entries to an archived project")
	}

	details, err := detailsFrom(worldbible.Details{}, payload)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, ownerID, projectID, details.Name, nil); err != nil {
		return nil, err
	}

	var attrs A
	if err := decodeAttributes(payload, &attrs); err != nil {
		return nil, err
	}

	entry, err := worldbible.NewEntry(ownerID, projectID, details, attrs)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, entry)

	s.logger.Debug("Entry created",
		zap.String("kind", string(s.kind)),
		zap.String("entry_id", entry.ID.String()),
		zap.String("project_id", projectID.String()))

	return ToEntryResponse(entry), nil
}

// GetByID retrieves an entry
func (s *Service[A]) GetByID(ctx context.Context, ownerID, projectID, id uuid.UUID) (*EntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, ownerID, projectID, id)
	if err != nil {
		return nil, err
	}
	return ToEntryResponse(entry), nil
}

// List retrieves a page of entries
func (s *Service[A]) List(ctx context.Context, ownerID, projectID uuid.UUID, filter EntryListFilter) ([]EntryResponse, int64, error) {
	if _, err := s.projects.FindByID(ctx, ownerID, projectID); err != nil {
		return nil, 0, err
	}
	domainFilter := toDomainFilter(filter)

	entries, err := s.entryRepo.FindAll(ctx, ownerID, projectID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entryRepo.Count(ctx, ownerID, projectID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = *ToEntryResponse(&entries[i])
	}
	return responses, total, nil
}

// ListAll reads every entry of the project in the kind's default order
func (s *Service[A]) ListAll(ctx context.Context, ownerID, projectID uuid.UUID) ([]EntryResponse, error) {
	all := make([]EntryResponse, 0)
	for page := 1; ; page++ {
		filter := shared.Filter{Page: page, PageSize: exportPageSize}
		entries, err := s.entryRepo.FindAll(ctx, ownerID, projectID, filter)
		if err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", s.kind, page, err)
		}
		for i := range entries {
			all = append(all, *ToEntryResponse(&entries[i]))
		}
		if len(entries) < exportPageSize {
			return all, nil
		}
	}
}

// Update applies a partial update. Omitted fields keep their values and
// list fields that are present replace the stored list.
func (s *Service[A]) Update(ctx context.Context, ownerID, projectID, id uuid.UUID, payload EntryPayload) (*EntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, ownerID, projectID, id)
	if err != nil {
		return nil, err
	}

	details, err := detailsFrom(entry.CurrentDetails(), payload)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(details.Name), entry.Name) {
		if err := s.ensureUniqueName(ctx, ownerID, projectID, details.Name, &entry.ID); err != nil {
			return nil, err
		}
	}

	attrs := entry.Attributes
	if err := decodeAttributes(payload, &attrs); err != nil {
		return nil, err
	}

	previousImage := entry.ImageKey
	if err := entry.Update(details, attrs); err != nil {
		return nil, err
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, entry)

	if previousImage != "" && previousImage != entry.ImageKey {
		s.deleteImage(ctx, entry, previousImage)
	}

	return ToEntryResponse(entry), nil
}

// Delete removes an entry and, best effort, its image
func (s *Service[A]) Delete(ctx context.Context, ownerID, projectID, id uuid.UUID) error {
	entry, err := s.entryRepo.FindByID(ctx, ownerID, projectID, id)
	if err != nil {
		return err
	}
	if err := s.entryRepo.Delete(ctx, ownerID, projectID, id); err != nil {
		return err
	}
	entry.MarkDeleted()
	s.publish(ctx, entry)
	s.deleteImage(ctx, entry, entry.ImageKey)
	return nil
}

// BulkDelete removes several entries in one transaction. Unknown ids are skipped.
func (s *Service[A]) BulkDelete(ctx context.Context, ownerID, projectID uuid.UUID, req BulkDeleteRequest) (*BulkDeleteResponse, error) {
	if len(req.IDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one id is required")
	}
	if len(req.IDs) > exportPageSize {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Cannot delete more than %d entries at once", exportPageSize))
	}

	found := make([]*worldbible.Entry[A], 0, len(req.IDs))
	seen := make(map[uuid.UUID]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry, err := s.entryRepo.FindByID(ctx, ownerID, projectID, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		found = append(found, entry)
	}
	if len(found) == 0 {
		return &BulkDeleteResponse{}, nil
	}

	ids := make([]uuid.UUID, len(found))
	for i, e := range found {
		ids[i] = e.ID
	}
	deleted, err := s.entryRepo.DeleteMany(ctx, ownerID, projectID, ids)
	if err != nil {
		return nil, err
	}

	for _, entry := range found {
		entry.MarkDeleted()
		s.publish(ctx, entry)
		s.deleteImage(ctx, entry, entry.ImageKey)
	}
	return &BulkDeleteResponse{Deleted: deleted}, nil
}

// PresignImage issues an upload URL for the entry image and stores its key.
// The previous image, if any, is removed.
func (s *Service[A]) PresignImage(ctx context.Context, ownerID, projectID, id uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.images == nil {
		return nil, shared.NewDomainError("FEATURE_UNAVAILABLE", "Image storage is not configured")
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !storage.IsAllowedContentType(contentType) {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Images must be png, jpeg, webp or gif")
	}

	entry, err := s.entryRepo.FindByID(ctx, ownerID, projectID, id)
	if err != nil {
		return nil, err
	}

	key, err := storage.ImageKey(ownerID, projectID, s.kind.PathSegment(), entry.ID, contentType)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", err.Error())
	}
	upload, err := s.images.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign %s image: %w", s.kind, err)
	}

	previous := entry.ImageKey
	if err := entry.SetImage(upload.Key); err != nil {
		return nil, err
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, entry)
	if previous != "" && previous != upload.Key {
		s.deleteImage(ctx, entry, previous)
	}

	return &ImageUploadResponse{
		UploadURL:   upload.URL,
		ImageKey:    upload.Key,
		ContentType: upload.ContentType,
		ExpiresAt:   upload.ExpiresAt,
	}, nil
}

func (s *Service[A]) ensureUniqueName(ctx context.Context, ownerID, projectID uuid.UUID, name string, excludeID *uuid.UUID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		// NewEntry/Update report the empty name
		return nil
	}
	exists, err := s.entryRepo.ExistsByName(ctx, ownerID, projectID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("A %s named %q already exists in this project", strings.ToLower(s.kind.Label()), name))
	}
	return nil
}

// deleteImage removes an image of the entry, best effort. Keys outside the
// entry's project folder are left alone.
func (s *Service[A]) deleteImage(ctx context.Context, entry *worldbible.Entry[A], key string) {
	if s.images == nil || key == "" {
		return
	}
	if !storage.IsProjectKey(key, entry.OwnerID, entry.ProjectID) {
		s.logger.Warn("Skipping image outside the project folder",
			zap.String("kind", string(s.kind)),
			zap.String("entry_id", entry.ID.String()),
			zap.String("key", key))
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete entry image",
			zap.String("kind", string(s.kind)),
			zap.String("entry_id", entry.ID.String()),
			zap.String("key", key),
			zap.Error(err))
	}
}

func (s *Service[A]) publish(ctx context.Context, entry *worldbible.Entry[A]) {
	if err := shared.PublishAndClear(ctx, s.publisher, entry); err != nil {
		s.logger.Warn("Failed to publish entry events",
			zap.String("kind", string(s.kind)),
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
	}
}

// detailsFrom overlays the payload's shared fields onto base. The image
// key can only be cleared here; PresignImage is what sets it.
func detailsFrom(base worldbible.Details, payload EntryPayload) (worldbible.Details, error) {
	if payload.Name != nil {
		base.Name = *payload.Name
	}
	if payload.Description != nil {
		base.Description = *payload.Description
	}
	if payload.Tags != nil {
		base.Tags = *payload.Tags
	}
	if payload.ImageKey != nil {
		if strings.TrimSpace(*payload.ImageKey) != "" {
			return base, shared.NewDomainError("INVALID_INPUT", "image_key is set by uploading an image and can only be cleared")
		}
		base.ImageKey = ""
	}
	return base, nil
}

// toDomainFilter leaves OrderBy empty when unset so the repository applies
// the kind's default order
func toDomainFilter(filter EntryListFilter) shared.Filter {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]interface{}),
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		domainFilter.Filters["tag"] = tag
	}
	domainFilter.OrderBy = strings.TrimSpace(filter.OrderBy)
	domainFilter.OrderDir = strings.TrimSpace(filter.OrderDir)
	return domainFilter.Normalize()
}

var _ EntryService = (*Service[worldbible.CharacterAttributes])(nil)
