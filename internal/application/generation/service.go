// Package generation drafts and rewrites world bible entries with a language model.
package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/ai"
)

const (
	DefaultNameCount = 5
	MaxNameCount     = 20
	maxPromptLength  = 2000
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Completer sends a single prompt to a model
type Completer interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

// Limiter decides whether a caller may make another request
type Limiter interface {
	Allow(key string) bool
}

// Recorder counts generation outcomes
type Recorder interface {
	ObserveGeneration(operation, outcome string)
}

// GenerateRequest asks for a new entry
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"max=2000"`
	Save   bool   `json:"save"`
}

// GenerateResult holds the generated entry and whether it was persisted
type GenerateResult struct {
	Entry *worldbibleapp.EntryResponse
	Saved bool
}

// EnhanceRequest asks for a rewritten description
type EnhanceRequest struct {
	Instruction string `json:"instruction" binding:"max=2000"`
}

// NamesRequest asks for name suggestions
type NamesRequest struct {
	Count int    `json:"count" binding:"omitempty,min=1,max=20"`
	Hint  string `json:"hint" binding:"max=2000"`
}

// NamesResponse lists suggested names
type NamesResponse struct {
	Names []string `json:"names"`
}

// Service runs generation requests against the world bible
type Service struct {
	completer Completer
	limiter   Limiter
	recorder  Recorder
	projects  worldbibleapp.ProjectFinder
	registry  *worldbibleapp.Registry
	logger    *zap.Logger
}

// NewService creates a generation service. A nil completer disables
// generation; limiter and recorder may be nil.
func NewService(
	completer Completer,
	limiter Limiter,
	recorder Recorder,
	projects worldbibleapp.ProjectFinder,
	registry *worldbibleapp.Registry,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		limiter:   limiter,
		recorder:  recorder,
		projects:  projects,
		registry:  registry,
		logger:    logger,
	}
}

// Enabled reports whether a model is configured
func (s *Service) Enabled() bool {
	return s.completer != nil
}

// Generate drafts a new entry of the given kind. With req.Save the draft
// is persisted through the world bible service.
func (s *Service) Generate(ctx context.Context, ownerID, projectID uuid.UUID, kind worldbible.Kind, req GenerateRequest) (result *GenerateResult, err error) {
	defer func() { s.observe("generate", err) }()

	if err := s.admit(ownerID); err != nil {
		return nil, err
	}
	entries, err := s.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, ai.Prompt{
		System: generateSystemPrompt(kind, entries.Schema(), p),
		User:   userPrompt(req.Prompt, "Surprise me with something that fits the project."),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	obj, err := ai.ExtractJSONObject(reply)
	if err != nil {
		s.logger.Warn("Model reply held no JSON object",
			zap.String("kind", string(kind)),
			zap.Int("reply_length", len(reply)))
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model did not return a usable entry")
	}
	payload, err := worldbibleapp.ParseEntryPayload([]byte(obj))
	if err != nil {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model returned an entry with invalid fields")
	}
	if payload.Name == nil || strings.TrimSpace(*payload.Name) == "" {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model returned an entry without a name")
	}
	// images only come from uploads
	payload.ImageKey = nil

	if !req.Save {
		draft, err := entries.Draft(ownerID, projectID, payload)
		if err != nil {
			return nil, rejectedByValidation(err)
		}
		return &GenerateResult{Entry: draft}, nil
	}

	created, err := entries.Create(ctx, ownerID, projectID, payload)
	if err != nil {
		return nil, rejectedByValidation(err)
	}
	s.logger.Info("Generated entry saved",
		zap.String("kind", string(kind)),
		zap.String("entry_id", created.ID.String()))
	return &GenerateResult{Entry: created, Saved: true}, nil
}

// Enhance rewrites the description of an existing entry and saves it
func (s *Service) Enhance(ctx context.Context, ownerID, projectID, entryID uuid.UUID, kind worldbible.Kind, req EnhanceRequest) (result *worldbibleapp.EntryResponse, err error) {
	defer func() { s.observe("enhance", err) }()

	if err := s.admit(ownerID); err != nil {
		return nil, err
	}
	entries, err := s.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	entry, err := entries.GetByID(ctx, ownerID, projectID, entryID)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, ai.Prompt{
		System: enhanceSystemPrompt(kind, p),
		User:   enhanceUserPrompt(entry.Name, entry.Description, entry.Fields(), clip(req.Instruction)),
	})
	if err != nil {
		return nil, err
	}

	description := stripFences(reply)
	if description == "" {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model returned an empty description")
	}
	return entries.Update(ctx, ownerID, projectID, entryID, worldbibleapp.EntryPayload{Description: &description})
}

// Names suggests names for a new entry of the given kind
func (s *Service) Names(ctx context.Context, ownerID, projectID uuid.UUID, kind worldbible.Kind, req NamesRequest) (result *NamesResponse, err error) {
	defer func() { s.observe("names", err) }()

	count := req.Count
	if count == 0 {
		count = DefaultNameCount
	}
	if count < 1 || count > MaxNameCount {
		return nil, shared.NewDomainError("INVALID_INPUT", "Count must be between 1 and 20")
	}
	if err := s.admit(ownerID); err != nil {
		return nil, err
	}
	if _, err := s.registry.Get(kind); err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, ai.Prompt{
		System: namesSystemPrompt(kind, p, count),
		User:   userPrompt(req.Hint, "Any style that suits the project."),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	arr, err := ai.ExtractJSONArray(reply)
	if err != nil {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model did not return a list of names")
	}
	raw := make([]string, 0, count)
	for _, v := range gjson.Parse(arr).Array() {
		// models sometimes answer with [{"name": "..."}]
		if v.IsObject() {
			v = v.Get("name")
		}
		raw = append(raw, v.String())
	}
	names := shared.NewStringList(raw...)
	if len(names) == 0 {
		return nil, shared.NewDomainError("UPSTREAM_ERROR", "The model did not return any names")
	}
	if len(names) > count {
		names = names[:count]
	}
	return &NamesResponse{Names: names}, nil
}

func (s *Service) admit(ownerID uuid.UUID) error {
	if s.completer == nil {
		return shared.NewDomainError("FEATURE_UNAVAILABLE", "AI generation is not enabled")
	}
	if s.limiter != nil && !s.limiter.Allow(ownerID.String()) {
		return shared.NewDomainError("RATE_LIMITED", "Too many generation requests, please wait a minute")
	}
	return nil
}

func (s *Service) complete(ctx context.Context, p ai.Prompt) (string, error) {
	reply, err := s.completer.Complete(ctx, p)
	if err != nil {
		s.logger.Error("Model request failed", zap.Error(err))
		if errors.Is(err, ai.ErrEmptyReply) {
			return "", shared.NewDomainError("UPSTREAM_ERROR", "The model returned an empty reply")
		}
		return "", shared.NewDomainError("UPSTREAM_ERROR", "The model request failed")
	}
	return reply, nil
}

func (s *Service) observe(operation string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailed
		if errors.Is(err, shared.ErrRateLimited) || errors.Is(err, shared.ErrFeatureUnavailable) {
			outcome = outcomeRejected
		}
	}
	s.recorder.ObserveGeneration(operation, outcome)
}

// rejectedByValidation reports model output that failed entry validation
// as an upstream problem rather than a client error
func rejectedByValidation(err error) error {
	if de, ok := shared.AsDomainError(err); ok && de.Code == "INVALID_INPUT" {
		return shared.NewDomainError("UPSTREAM_ERROR", "The model returned an invalid entry: "+de.Message)
	}
	return err
}

func userPrompt(text, fallback string) string {
	text = clip(strings.TrimSpace(text))
	if text == "" {
		return fallback
	}
	return text
}

func clip(s string) string {
	if len(s) > maxPromptLength {
		return s[:maxPromptLength]
	}
	return s
}

// stripFences removes a surrounding markdown code fence from a reply
func stripFences(reply string) string {
	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "```") {
		return reply
	}
	reply = strings.TrimPrefix(reply, "```")
	if nl := strings.IndexByte(reply, '\n'); nl >= 0 {
		reply = reply[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(reply), "```"))
}
