package shared

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Normalize(t *testing.T) {
	t.Run("clamps out of range values", func(t *testing.T) {
		f := Filter{Page: -3, PageSize: 500}.Normalize()
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, MaxPageSize, f.PageSize)
		assert.NotNil(t, f.Filters)
	})

	t.Run("zero page size gets default", func(t *testing.T) {
		f := Filter{Page: 2}.Normalize()
		assert.Equal(t, DefaultPageSize, f.PageSize)
		assert.Equal(t, DefaultPageSize, f.Offset())
	})
}

func TestDefaultFilter_LeavesOrderingToRepositories(t *testing.T) {
	f := DefaultFilter()
	assert.Empty(t, f.OrderBy)
	assert.Empty(t, f.OrderDir)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Zero(t, f.Offset())
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("loading project: %w", NewDomainError("NOT_FOUND", "Project not found"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrAlreadyExists)

	de, ok := AsDomainError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Project not found", de.Message)
}
