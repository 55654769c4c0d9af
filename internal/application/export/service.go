// Package export writes a project and its world bible to downloadable documents.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	projectapp "github.com/fablecraft/backend/internal/application/project"
	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/render"
)

// Format is an export file format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// formatVersion is bumped when the exported document layout changes
const formatVersion = 1

// ParseFormat resolves a format name; an empty name means JSON
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", shared.NewDomainError("INVALID_FORMAT", fmt.Sprintf("Unsupported export format %q", name))
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "md"
	case FormatPDF:
		return "pdf"
	default:
		return "json"
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Renderer prints an HTML body to PDF
type Renderer interface {
	Render(ctx context.Context, title, body string) ([]byte, error)
}

// Section holds the entries of one kind
type Section struct {
	Kind    worldbible.Kind
	Label   string
	Entries []worldbibleapp.EntryResponse
}

// Document is a project with every entry, grouped by kind
type Document struct {
	Project    *projectapp.ProjectResponse
	Sections   []Section
	ExportedAt time.Time
}

// Result is a rendered export
type Result struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Service builds exports
type Service struct {
	projects worldbibleapp.ProjectFinder
	registry *worldbibleapp.Registry
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an export service. A nil renderer disables PDF.
func NewService(projects worldbibleapp.ProjectFinder, registry *worldbibleapp.Registry, renderer Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects: projects,
		registry: registry,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// Load reads the project and all of its entries
func (s *Service) Load(ctx context.Context, ownerID, projectID uuid.UUID) (*Document, error) {
	p, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	services := s.registry.All()
	sections := make([]Section, len(services))
	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range services {
		g.Go(func() error {
			entries, err := svc.ListAll(gctx, ownerID, projectID)
			if err != nil {
				return err
			}
			sections[i] = Section{Kind: svc.Kind(), Label: svc.Kind().Label(), Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Document{
		Project:    projectapp.ToProjectResponse(p),
		Sections:   sections,
		ExportedAt: s.now().UTC(),
	}, nil
}

// Export renders the project in the requested format
func (s *Service) Export(ctx context.Context, ownerID, projectID uuid.UUID, format Format) (*Result, error) {
	if format == FormatPDF && s.renderer == nil {
		return nil, shared.NewDomainError("FEATURE_UNAVAILABLE", "PDF export is not enabled")
	}

	doc, err := s.Load(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch format {
	case FormatJSON:
		body, err = encodeJSON(doc)
	case FormatYAML:
		body, err = encodeYAML(doc)
	case FormatMarkdown:
		body = []byte(Markdown(doc))
	case FormatPDF:
		body, err = s.renderPDF(ctx, doc)
	default:
		return nil, shared.NewDomainError("INVALID_FORMAT", fmt.Sprintf("Unsupported export format %q", format))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project exported",
		zap.String("project_id", projectID.String()),
		zap.String("format", string(format)),
		zap.Int("bytes", len(body)))

	return &Result{
		Filename:    filename(doc.Project, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *Service) renderPDF(ctx context.Context, doc *Document) ([]byte, error) {
	html, err := render.MarkdownToHTML(Markdown(doc))
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.Render(ctx, doc.Project.Title, html)
	if err != nil {
		s.logger.Error("PDF rendering failed", zap.Error(err))
		return nil, shared.NewDomainError("RENDER_FAILED", "Failed to render the PDF export")
	}
	return pdf, nil
}

type jsonDocument struct {
	FormatVersion int                                     `json:"format_version"`
	ExportedAt    time.Time                               `json:"exported_at"`
	Project       *projectapp.ProjectResponse             `json:"project"`
	Entries       map[string][]worldbibleapp.EntryResponse `json:"entries"`
}

func encodeJSON(doc *Document) ([]byte, error) {
	out := jsonDocument{
		FormatVersion: formatVersion,
		ExportedAt:    doc.ExportedAt,
		Project:       doc.Project,
		Entries:       make(map[string][]worldbibleapp.EntryResponse, len(doc.Sections)),
	}
	for _, sec := range doc.Sections {
		out.Entries[sec.Kind.PathSegment()] = sec.Entries
	}
	return json.MarshalIndent(out, "", "  ")
}

// encodeYAML re-encodes the JSON document as block YAML. Going through a
// yaml.Node keeps the JSON field order.
func encodeYAML(doc *Document) ([]byte, error) {
	data, err := encodeJSON(doc)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode export for yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func filename(p *projectapp.ProjectResponse, format Format) string {
	base := p.Slug
	if base == "" {
		base = "project-" + p.ID.String()[:8]
	}
	return base + "." + format.Extension()
}
