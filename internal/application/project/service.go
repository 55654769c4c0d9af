package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSlugAttempts bounds the numeric suffix search before falling back to a random suffix
const maxSlugAttempts = 50

// ObjectDeleter removes stored objects such as cover images
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// ProjectService handles project operations
type ProjectService struct {
	projectRepo project.ProjectRepository
	stats       worldbible.StatsReader
	publisher   shared.EventPublisher
	objects     ObjectDeleter
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService. publisher and objects may be nil.
func NewProjectService(
	projectRepo project.ProjectRepository,
	stats worldbible.StatsReader,
	publisher shared.EventPublisher,
	objects ObjectDeleter,
	logger *zap.Logger,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projectRepo: projectRepo,
		stats:       stats,
		publisher:   publisher,
		objects:     objects,
		logger:      logger,
	}
}

// Create creates a new project with a slug unique for the owner
func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error) {
	p, err := project.NewProject(ownerID, req.Title)
	if err != nil {
		return nil, err
	}
	if req.Genre != "" || req.Synopsis != "" {
		if err := p.SetDetails(req.Genre, req.Synopsis); err != nil {
			return nil, err
		}
	}
	if req.Status == string(project.StatusActive) {
		if err := p.Activate(); err != nil {
			return nil, err
		}
	}

	slug, err := s.uniqueSlug(ctx, ownerID, p.Slug, nil)
	if err != nil {
		return nil, err
	}
	p.AssignSlug(slug)

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	return ToProjectResponse(p), nil
}

// GetByID retrieves a project
func (s *ProjectService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return ToProjectResponse(p), nil
}

// List retrieves the owner's projects
func (s *ProjectService) List(ctx context.Context, ownerID uuid.UUID, filter ProjectListFilter) ([]ProjectResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	projects, err := s.projectRepo.FindAll(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.projectRepo.Count(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = *ToProjectResponse(&projects[i])
	}
	return responses, total, nil
}

// Update applies a partial update; omitted fields keep their values
func (s *ProjectService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != p.Title {
		if err := p.Rename(*req.Title); err != nil {
			return nil, err
		}
		slug, err := s.uniqueSlug(ctx, ownerID, p.Slug, &p.ID)
		if err != nil {
			return nil, err
		}
		p.AssignSlug(slug)
	}

	if req.Genre != nil || req.Synopsis != nil {
		genre, synopsis := p.Genre, p.Synopsis
		if req.Genre != nil {
			genre = *req.Genre
		}
		if req.Synopsis != nil {
			synopsis = *req.Synopsis
		}
		if err := p.SetDetails(genre, synopsis); err != nil {
			return nil, err
		}
	}

	if req.CoverImageKey != nil {
		key := strings.TrimSpace(*req.CoverImageKey)
		if key != "" && !storage.IsProjectKey(key, ownerID, p.ID) {
			return nil, shared.NewDomainError("INVALID_INPUT", "cover_image_key must name an object in the project's folder")
		}
		p.SetCoverImage(key)
	}

	if req.Status != nil && *req.Status != string(p.Status) {
		switch project.ProjectStatus(*req.Status) {
		case project.StatusActive:
			if err := p.Activate(); err != nil {
				return nil, err
			}
		default:
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move a %s project back to %s", p.Status, *req.Status))
		}
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	return ToProjectResponse(p), nil
}

// Archive archives a project
func (s *ProjectService) Archive(ctx context.Context, ownerID, id uuid.UUID) (*ProjectResponse, error) {
	return s.transition(ctx, ownerID, id, (*project.Project).Archive)
}

// Restore brings an archived project back
func (s *ProjectService) Restore(ctx context.Context, ownerID, id uuid.UUID) (*ProjectResponse, error) {
	return s.transition(ctx, ownerID, id, (*project.Project).Restore)
}

func (s *ProjectService) transition(ctx context.Context, ownerID, id uuid.UUID, apply func(*project.Project) error) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	return ToProjectResponse(p), nil
}

// Delete removes a project together with all of its entries. The cover and
// entry images are removed from storage afterwards, best effort.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	p, err := s.projectRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	var keys []string
	if s.objects != nil {
		if keys, err = s.projectRepo.ImageKeys(ctx, ownerID, id); err != nil {
			return err
		}
		if p.CoverImageKey != "" {
			keys = append(keys, p.CoverImageKey)
		}
	}

	if err := s.projectRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.deleteObjects(ctx, p, keys)

	p.MarkDeleted()
	s.publish(ctx, p)
	return nil
}

func (s *ProjectService) deleteObjects(ctx context.Context, p *project.Project, keys []string) {
	for _, key := range keys {
		if !storage.IsProjectKey(key, p.OwnerID, p.ID) {
			s.logger.Warn("Skipping image outside the project folder",
				zap.String("project_id", p.ID.String()),
				zap.String("key", key))
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete project image",
				zap.String("project_id", p.ID.String()),
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// Stats returns the number of entries of each kind in the project
func (s *ProjectService) Stats(ctx context.Context, ownerID, id uuid.UUID) (*ProjectStatsResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, ownerID, id); err != nil {
		return nil, err
	}
	counts, err := s.stats.CountByKind(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return ToProjectStatsResponse(id, counts), nil
}

// uniqueSlug appends -2, -3, ... until the slug is free for the owner
func (s *ProjectService) uniqueSlug(ctx context.Context, ownerID uuid.UUID, base string, excludeID *uuid.UUID) (string, error) {
	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		exists, err := s.projectRepo.ExistsBySlug(ctx, ownerID, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *ProjectService) publish(ctx context.Context, p *project.Project) {
	if err := shared.PublishAndClear(ctx, s.publisher, p); err != nil {
		s.logger.Warn("Failed to publish project events",
			zap.String("project_id", p.ID.String()),
			zap.Error(err))
	}
}

func toDomainFilter(filter ProjectListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	return domainFilter.Normalize()
}
