package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
)

type stubProjects struct {
	project *project.Project
}

func (s stubProjects) FindByID(_ context.Context, ownerID, id uuid.UUID) (*project.Project, error) {
	if s.project == nil || s.project.ID != id || s.project.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	return s.project, nil
}

// stubEntries implements only the methods export uses
type stubEntries struct {
	worldbibleapp.EntryService
	kind    worldbible.Kind
	entries []worldbibleapp.EntryResponse
	err     error
}

func (s stubEntries) Kind() worldbible.Kind { return s.kind }

func (s stubEntries) ListAll(context.Context, uuid.UUID, uuid.UUID) ([]worldbibleapp.EntryResponse, error) {
	return s.entries, s.err
}

type stubRenderer struct {
	title string
	body  string
	err   error
}

func (r *stubRenderer) Render(_ context.Context, title, body string) ([]byte, error) {
	r.title, r.body = title, body
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4"), nil
}

var exportedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, renderer Renderer, sections ...stubEntries) (*Service, *project.Project) {
	t.Helper()
	p, err := project.NewProject(uuid.New(), "The Salt Road")
	require.NoError(t, err)
	require.NoError(t, p.SetDetails("dark fantasy", "Smugglers cross a drowned empire."))
	p.AssignSlug("the-salt-road")

	services := make([]worldbibleapp.EntryService, len(sections))
	for i, s := range sections {
		services[i] = s
	}
	svc := NewService(stubProjects{project: p}, worldbibleapp.NewRegistry(services...), renderer, nil)
	svc.now = func() time.Time { return exportedAt }
	return svc, p
}

func bible() []stubEntries {
	return []stubEntries{
		{kind: worldbible.KindItem, entries: []worldbibleapp.EntryResponse{{
			Kind:        worldbible.KindItem,
			Name:        "Tide Compass",
			Description: "<p>Points to <strong>low water</strong>.</p>",
			Tags:        shared.NewStringList("relic"),
			Attributes:  worldbible.ItemAttributes{ItemType: "tool", Value: decimal.RequireFromString("12.50")},
		}}},
		{kind: worldbible.KindCharacter, entries: []worldbibleapp.EntryResponse{{
			Kind:        worldbible.KindCharacter,
			Name:        "Mara Quill",
			Description: "A smuggler.",
			Attributes:  worldbible.CharacterAttributes{Role: "captain", Goals: shared.NewStringList("freedom", "revenge")},
		}}},
		{kind: worldbible.KindCreature},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "md": FormatMarkdown, "pdf": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("docx")
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_FORMAT", de.Code)
}

func TestService_Load(t *testing.T) {
	svc, p := newTestService(t, nil, bible()...)

	doc, err := svc.Load(context.Background(), p.OwnerID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Salt Road", doc.Project.Title)
	require.Len(t, doc.Sections, 3)
	// display order, not registration order
	assert.Equal(t, worldbible.KindCharacter, doc.Sections[0].Kind)
	assert.Equal(t, worldbible.KindItem, doc.Sections[1].Kind)
	assert.Equal(t, worldbible.KindCreature, doc.Sections[2].Kind)
	assert.Equal(t, exportedAt, doc.ExportedAt)
}

func TestService_Load_Errors(t *testing.T) {
	svc, p := newTestService(t, nil, stubEntries{kind: worldbible.KindCharacter, err: errors.New("db down")})

	_, err := svc.Load(context.Background(), p.OwnerID, p.ID)
	assert.EqualError(t, err, "db down")

	_, err = svc.Load(context.Background(), uuid.New(), p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_ExportJSON(t *testing.T) {
	svc, p := newTestService(t, nil, bible()...)

	res, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "the-salt-road.json", res.Filename)
	assert.Equal(t, "application/json", res.ContentType)

	var decoded struct {
		FormatVersion int `json:"format_version"`
		Project       struct {
			Title string `json:"title"`
		} `json:"project"`
		Entries map[string][]map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &decoded))
	assert.Equal(t, 1, decoded.FormatVersion)
	assert.Equal(t, "The Salt Road", decoded.Project.Title)
	require.Len(t, decoded.Entries["characters"], 1)
	assert.Equal(t, "captain", decoded.Entries["characters"][0]["role"])
	assert.Equal(t, "12.5", decoded.Entries["items"][0]["value"])
	assert.Empty(t, decoded.Entries["creatures"])
}

func TestService_ExportYAML(t *testing.T) {
	svc, p := newTestService(t, nil, bible()...)

	res, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "the-salt-road.yaml", res.Filename)
	assert.NotContains(t, string(res.Body), "{")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(res.Body, &decoded))
	projectMap, ok := decoded["project"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The Salt Road", projectMap["title"])

	entries := decoded["entries"].(map[string]any)
	chars := entries["characters"].([]any)
	mara := chars[0].(map[string]any)
	assert.Equal(t, []any{"freedom", "revenge"}, mara["goals"])
	items := entries["items"].([]any)
	// a numeric-looking string stays a string
	assert.Equal(t, "12.5", items[0].(map[string]any)["value"])
}

func TestService_ExportMarkdown(t *testing.T) {
	svc, p := newTestService(t, nil, bible()...)

	res, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "the-salt-road.md", res.Filename)

	out := string(res.Body)
	assert.Contains(t, out, "# The Salt Road\n")
	assert.Contains(t, out, "**Genre:** Dark Fantasy")
	assert.Contains(t, out, "## Characters\n\n### Mara Quill\n\nA smuggler.")
	assert.Contains(t, out, "- **Goals:** freedom, revenge")
	assert.Contains(t, out, "Points to **low water**.")
	assert.Contains(t, out, "- **Tags:** relic")
	assert.NotContains(t, out, "<strong>")
	assert.NotContains(t, out, "## Creatures")
	assert.Less(t, strings.Index(out, "## Characters"), strings.Index(out, "## Items"))
}

func TestService_ExportPDF(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc, p := newTestService(t, nil, bible()...)
		_, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatPDF)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "FEATURE_UNAVAILABLE", de.Code)
	})

	t.Run("rendered", func(t *testing.T) {
		renderer := &stubRenderer{}
		svc, p := newTestService(t, renderer, bible()...)
		res, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatPDF)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", res.ContentType)
		assert.Equal(t, "%PDF-1.4", string(res.Body))
		assert.Equal(t, "The Salt Road", renderer.title)
		assert.Contains(t, renderer.body, "<h1>The Salt Road</h1>")
		assert.Contains(t, renderer.body, "<h3>Mara Quill</h3>")
	})

	t.Run("render failure", func(t *testing.T) {
		renderer := &stubRenderer{err: errors.New("chrome crashed")}
		svc, p := newTestService(t, renderer, bible()...)
		_, err := svc.Export(context.Background(), p.OwnerID, p.ID, FormatPDF)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "RENDER_FAILED", de.Code)
	})
}

func TestDescriptionMarkdown(t *testing.T) {
	assert.Equal(t, "plain 1 < 2 text", descriptionMarkdown(" plain 1 < 2 text "))
	assert.Equal(t, "- one\n- two", descriptionMarkdown("<ul><li>one</li><li>two</li></ul>"))
}
