// Package llm implements the text-generation capability on Gemini chat
// models: free-text drafting (itinerary, trip note) and structured
// extraction of state-update diffs from user feedback.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// DraftModelConfig configures the creative model used for itineraries and
// trip notes.
type DraftModelConfig struct {
	Model       string  `envconfig:"DRAFT_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"DRAFT_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"DRAFT_TEMPERATURE" default:"0.7"`
}

// ExtractModelConfig configures the deterministic model used for
// structured feedback extraction.
type ExtractModelConfig struct {
	Model       string  `envconfig:"EXTRACT_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"EXTRACT_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"EXTRACT_TEMPERATURE" default:"0"`
}

// Config holds everything needed to construct both chat models.
type Config struct {
	APIKey  string
	BaseURL string
	Draft   DraftModelConfig
	Extract ExtractModelConfig
}

// Generator implements the planner's Generator capability on two Gemini
// chat models.
type Generator struct {
	draft   *gemini.ChatModel
	extract *gemini.ChatModel
}

// NewGenerator creates the Gemini client and both chat models.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	draft, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Draft.Model,
		Temperature: &cfg.Draft.Temperature,
		MaxTokens:   &cfg.Draft.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating draft model")
		return nil, fmt.Errorf("error creating draft model: %w", err)
	}

	extract, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Extract.Model,
		Temperature: &cfg.Extract.Temperature,
		MaxTokens:   &cfg.Extract.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	return &Generator{draft: draft, extract: extract}, nil
}

// GenerateItinerary drafts the day-by-day itinerary from the trip
// parameters and the top options found.
func (g *Generator) GenerateItinerary(ctx context.Context, s *trip.TripState) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(itinerarySystemPrompt),
		schema.UserMessage(renderItineraryPrompt(s)),
	}
	out, err := g.draft.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate itinerary: %w", err)
	}
	if out == nil || out.Content == "" {
		return "", fmt.Errorf("generate itinerary: empty response")
	}
	return out.Content, nil
}

// GenerateTripNote produces the short qualitative review of the trip.
func (g *Generator) GenerateTripNote(ctx context.Context, s *trip.TripState) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(renderTripNotePrompt(s)),
		schema.UserMessage("Analyze this trip."),
	}
	out, err := g.draft.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate trip note: %w", err)
	}
	if out == nil || out.Content == "" {
		return "", fmt.Errorf("generate trip note: empty response")
	}
	return out.Content, nil
}

// ExtractStateUpdate maps free-text feedback onto a StateUpdate diff. A
// malformed model response is an error; the caller falls back to a no-op
// diff.
func (g *Generator) ExtractStateUpdate(ctx context.Context, s *trip.TripState, feedback string) (trip.StateUpdate, error) {
	messages := []*schema.Message{
		schema.SystemMessage(renderModifierPrompt(s, feedback)),
		schema.UserMessage(feedback),
	}
	out, err := g.extract.Generate(ctx, messages)
	if err != nil {
		return trip.StateUpdate{}, fmt.Errorf("extract state update: %w", err)
	}
	if out == nil || out.Content == "" {
		return trip.StateUpdate{}, fmt.Errorf("extract state update: empty response")
	}

	var diff trip.StateUpdate
	if err := json.Unmarshal([]byte(stripFences(out.Content)), &diff); err != nil {
		logx.Warn().Err(err).Str("content", out.Content).Msg("unparseable state update from model")
		return trip.StateUpdate{}, fmt.Errorf("extract state update: %w", err)
	}
	return diff, nil
}

// stripFences removes a surrounding markdown code fence, which models emit
// even when asked for bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
