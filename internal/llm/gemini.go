package llm

import (
	"context"
	"encoding/json"
	"log"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli          *genai.Client
	defaultModel string
	rl           *rpsLimiter
}

// NewGeminiClient connects to the Gemini API. rps/burst throttle outgoing
// requests; rps <= 0 disables throttling.
func NewGeminiClient(ctx context.Context, apiKey, defaultModel string, rps float64, burst int) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ServiceError{Op: "connect", Err: err}
	}
	return &GeminiClient{cli: cli, defaultModel: defaultModel, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.defaultModel }

func (g *GeminiClient) Close() error {
	g.rl.Stop()
	return nil
}

// Generate performs one blocking round-trip. Errors are surfaced as
// *ServiceError with no retry; a failed stage leaves no artifact, so a re-run
// retries it naturally.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	stage := StageFrom(ctx)
	if err := g.rl.Acquire(ctx); err != nil {
		return nil, &ServiceError{Op: "ratelimit", Err: err}
	}

	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	log.Printf("LLM request (%s): model=%s schema=%s %d bytes", stage, model, req.SchemaName, len(req.System)+len(req.User))

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.User}}}},
		cfg,
	)
	if err != nil {
		return nil, &ServiceError{Op: "generate " + stage, Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrInvalidJSON
	}
	txt := resp.Candidates[0].Content.Parts[0].Text
	if req.Schema != nil {
		raw := json.RawMessage(txt)
		if !json.Valid(raw) {
			return nil, ErrInvalidJSON
		}
		return raw, nil
	}
	// Free-text result: keep loosely-typed JSON as-is, otherwise wrap the
	// text as a JSON string so callers always get a RawMessage.
	if json.Valid([]byte(txt)) {
		return json.RawMessage(txt), nil
	}
	b, err := json.Marshal(txt)
	if err != nil {
		return nil, ErrInvalidJSON
	}
	return b, nil
}
