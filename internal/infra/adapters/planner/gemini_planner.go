// File: internal/infra/adapters/planner/gemini_planner.go
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
)

var _ adapter.TravelAssistant = (*GeminiPlanner)(nil)

// PlanCreated is the reply text of planning-only turns.
const PlanCreated = "✓ Query plan created"

const planningInstruction = `You analyze travel queries. Answer with a JSON object of the form
{"plan": "<structured search plan>", "sub_queries": ["<aspect>", ...]}.
The plan identifies destinations, dates, preferences and constraints.
Each sub-query covers one specific search aspect. No prose outside the JSON.`

// textGenerator is the slice of the Gemini SDK the planner uses.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
	maxOut int
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		MaxOutputTokens:   int32(g.maxOut),
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: planningInstruction}}},
	}, nil)
	if err != nil {
		return "", err
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// GeminiPlanner answers chat turns locally with a query plan produced by
// Gemini, mirroring the backend's planning-only mode.
type GeminiPlanner struct {
	gen textGenerator
	log *zerolog.Logger
}

func NewGeminiPlanner(ctx context.Context, cfg config.PlannerConfig, logger *zerolog.Logger) (*GeminiPlanner, error) {
	if cfg.GeminiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.GeminiURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return newGeminiPlanner(&genaiGenerator{client: c, model: cfg.Model, maxOut: cfg.MaxTokens}, logger), nil
}

func newGeminiPlanner(gen textGenerator, logger *zerolog.Logger) *GeminiPlanner {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "GeminiPlanner").Logger()
	return &GeminiPlanner{gen: gen, log: &l}
}

func (p *GeminiPlanner) SendMessage(ctx context.Context, req adapter.SendRequest) (adapter.SendResponse, error) {
	defer logging.TraceDuration(p.log, "GeminiPlanner.SendMessage")()
	prompt := fmt.Sprintf("Analyze the following travel query and create a structured plan:\n\nQuery: %s\n\n"+
		"Decompose it into specific search aspects and sub-queries that will help gather all necessary information.", req.Message)

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return adapter.SendResponse{}, fmt.Errorf("gemini: generate plan: %w", err)
	}
	plan, subQueries, err := parsePlan(raw)
	if err != nil {
		p.log.Warn().Err(err).Str("thread_id", req.ThreadID).Msg("unparseable plan")
		return adapter.SendResponse{}, err
	}
	return adapter.SendResponse{Message: PlanCreated, Plan: plan, SubQueries: subQueries}, nil
}

// parsePlan decodes the model output. Code fences around the JSON are
// tolerated; a missing plan becomes "No plan generated".
func parsePlan(raw string) (string, []string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var out struct {
		Plan       string   `json:"plan"`
		SubQueries []string `json:"sub_queries"`
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", nil, fmt.Errorf("gemini: decode plan: %w", err)
	}
	if strings.TrimSpace(out.Plan) == "" {
		out.Plan = "No plan generated"
	}
	return out.Plan, out.SubQueries, nil
}
