package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	projectapp "github.com/fablecraft/backend/internal/application/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/interfaces/http/dto"
	"github.com/fablecraft/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, ownerID uuid.UUID, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, ownerID uuid.UUID, filter projectapp.ProjectListFilter) ([]projectapp.ProjectResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]projectapp.ProjectResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectService) Update(ctx context.Context, ownerID, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Archive(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Restore(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockProjectService) Stats(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectStatsResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectapp.ProjectStatsResponse), args.Error(1)
}

// ownerRouter authenticates every request as owner
func ownerRouter(owner uuid.UUID) *gin.Engine {
	middleware.SetupValidator()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if owner != uuid.Nil {
			setOwner(c, owner)
		}
		c.Next()
	})
	return r
}

func projectRouter(owner uuid.UUID, svc ProjectUseCases) *gin.Engine {
	h := NewProjectHandler(svc)
	r := ownerRouter(owner)
	g := r.Group("/projects")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/archive", h.Archive)
	g.POST("/:id/restore", h.Restore)
	g.GET("/:id/stats", h.Stats)
	return r
}

func sendJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleProject(owner uuid.UUID) *projectapp.ProjectResponse {
	now := time.Now()
	return &projectapp.ProjectResponse{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     "The Salt Crown",
		Slug:      "the-salt-crown",
		Status:    "draft",
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func TestProjectHandler_Create(t *testing.T) {
	owner := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockProjectService)
		p := sampleProject(owner)
		svc.On("Create", mock.Anything, owner, projectapp.CreateProjectRequest{Title: "The Salt Crown", Genre: "fantasy"}).Return(p, nil)

		w := sendJSON(projectRouter(owner, svc), http.MethodPost, "/projects", `{"title":"The Salt Crown","genre":"fantasy"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w).Data.(map[string]interface{})
		assert.Equal(t, "the-salt-crown", data["slug"])
		svc.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		svc := new(MockProjectService)
		w := sendJSON(projectRouter(owner, svc), http.MethodPost, "/projects", `{"genre":"fantasy"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "title", resp.Error.Details[0].Field)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := sendJSON(projectRouter(uuid.Nil, new(MockProjectService)), http.MethodPost, "/projects", `{"title":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProjectHandler_List(t *testing.T) {
	owner := uuid.New()
	svc := new(MockProjectService)
	filter := projectapp.ProjectListFilter{Search: "salt", Status: "draft", Page: 2, PageSize: 5}
	svc.On("List", mock.Anything, owner, filter).Return([]projectapp.ProjectResponse{*sampleProject(owner)}, int64(6), nil)
	r := projectRouter(owner, svc)

	w := serve(r, http.MethodGet, "/projects?search=salt&status=draft&page=2&page_size=5")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(6), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 5, resp.Meta.PageSize)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	t.Run("defaults", func(t *testing.T) {
		svc := new(MockProjectService)
		svc.On("List", mock.Anything, owner, projectapp.ProjectListFilter{}).Return([]projectapp.ProjectResponse{}, int64(0), nil)

		w := serve(projectRouter(owner, svc), http.MethodGet, "/projects")
		resp := decode(t, w)
		assert.Equal(t, 1, resp.Meta.Page)
		assert.Equal(t, shared.DefaultPageSize, resp.Meta.PageSize)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := serve(projectRouter(owner, new(MockProjectService)), http.MethodGet, "/projects?status=lost")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProjectHandler_GetByID(t *testing.T) {
	owner := uuid.New()
	p := sampleProject(owner)
	missing := uuid.New()
	svc := new(MockProjectService)
	svc.On("GetByID", mock.Anything, owner, p.ID).Return(p, nil)
	svc.On("GetByID", mock.Anything, owner, missing).Return(nil, shared.ErrNotFound)
	r := projectRouter(owner, svc)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/projects/"+p.ID.String()).Code)

	w := serve(r, http.MethodGet, "/projects/"+missing.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/projects/not-a-uuid").Code)
}

func TestProjectHandler_Update(t *testing.T) {
	owner := uuid.New()
	p := sampleProject(owner)
	title := "The Iron Crown"
	svc := new(MockProjectService)
	svc.On("Update", mock.Anything, owner, p.ID, projectapp.UpdateProjectRequest{Title: &title}).Return(p, nil)
	r := projectRouter(owner, svc)

	w := sendJSON(r, http.MethodPut, "/projects/"+p.ID.String(), `{"title":"The Iron Crown"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	stale := uuid.New()
	svc.On("Update", mock.Anything, owner, stale, mock.Anything).Return(nil, shared.ErrConcurrencyConflict)
	w = sendJSON(r, http.MethodPut, "/projects/"+stale.String(), `{"genre":"noir"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProjectHandler_Lifecycle(t *testing.T) {
	owner := uuid.New()
	p := sampleProject(owner)
	svc := new(MockProjectService)
	svc.On("Archive", mock.Anything, owner, p.ID).Return(p, nil).Once()
	svc.On("Archive", mock.Anything, owner, p.ID).Return(nil, shared.NewDomainError("ALREADY_ARCHIVED", "Project is already archived"))
	svc.On("Restore", mock.Anything, owner, p.ID).Return(p, nil)
	svc.On("Delete", mock.Anything, owner, p.ID).Return(nil)
	svc.On("Stats", mock.Anything, owner, p.ID).Return(&projectapp.ProjectStatsResponse{
		ProjectID: p.ID,
		Counts:    map[string]int64{"character": 2},
		Total:     2,
	}, nil)
	r := projectRouter(owner, svc)
	base := "/projects/" + p.ID.String()

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, base+"/archive").Code)

	w := serve(r, http.MethodPost, base+"/archive")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, base+"/restore").Code)

	w = serve(r, http.MethodGet, base+"/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w).Data.(map[string]interface{})["total"])

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, base).Code)
	svc.AssertExpectations(t)
}
