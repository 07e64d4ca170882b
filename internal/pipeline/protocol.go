// Package pipeline implements the artifact stages. Every stage runs the same
// four-step protocol against the generation client: draft, review, accept
// the revision (or fall back to the draft), then a zero-temperature
// structural conformance pass with the drafting schema.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	genai "google.golang.org/genai"

	"storyforge/internal/llm"
	"storyforge/internal/types"
)

const validateSystem = `Return the JSON document in the user message unchanged.
This call is a structural conformance check against the response schema.`

// Protocol is one artifact kind's configuration of the
// draft-review-revise-validate pattern.
type Protocol struct {
	Client llm.Client

	// Kind names the artifact ("worldview", "characters", "conflicts"). The
	// review output carries the revision under "revised_<kind>".
	Kind string

	Schema       *genai.Schema
	SchemaName   string
	ReviewSchema *genai.Schema

	DraftModel    string
	ReviewModel   string
	ValidateModel string

	DraftTemperature  float32
	ReviewTemperature float32
}

// Result carries every intermediate value; no step mutates its input.
type Result struct {
	Draft     json.RawMessage
	Report    types.ReviewReport
	UsedDraft bool // review omitted a usable revision; draft was kept
	Final     json.RawMessage
}

// Run executes the four steps. reviewUser builds the review prompt from the
// draft so the caller controls how upstream context is embedded; the review
// may only alter the artifact under review, never its inputs.
func (p *Protocol) Run(ctx context.Context, draftSystem, draftUser, reviewSystem string,
	reviewUser func(draft json.RawMessage) string) (*Result, error) {

	draft, err := p.Client.Generate(llm.WithStage(ctx, p.Kind+".draft"), llm.Request{
		Model:       p.DraftModel,
		System:      draftSystem,
		User:        draftUser,
		Schema:      p.Schema,
		SchemaName:  p.SchemaName,
		Temperature: p.DraftTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s draft: %w", p.Kind, err)
	}

	reviewRaw, err := p.Client.Generate(llm.WithStage(ctx, p.Kind+".review"), llm.Request{
		Model:       p.ReviewModel,
		System:      reviewSystem,
		User:        reviewUser(draft),
		Schema:      p.ReviewSchema,
		SchemaName:  p.SchemaName + "Review",
		Temperature: p.ReviewTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s review: %w", p.Kind, err)
	}

	report := parseReviewReport(reviewRaw)
	accepted, usedDraft := AcceptRevision(reviewRaw, "revised_"+p.Kind, draft)

	final, err := p.Conform(ctx, accepted)
	if err != nil {
		return nil, err
	}

	return &Result{Draft: draft, Report: report, UsedDraft: usedDraft, Final: final}, nil
}

// Conform runs the zero-temperature round-trip that gates the final
// artifact's structure. On non-conformance the client's error propagates; no
// mechanical repair loop exists here.
func (p *Protocol) Conform(ctx context.Context, artifact json.RawMessage) (json.RawMessage, error) {
	final, err := p.Client.Generate(llm.WithStage(ctx, p.Kind+".validate"), llm.Request{
		Model:       p.ValidateModel,
		System:      validateSystem,
		User:        string(artifact),
		Schema:      p.Schema,
		SchemaName:  p.SchemaName,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%s validate: %w", p.Kind, err)
	}
	return final, nil
}

// AcceptRevision extracts the revised artifact from a review payload. When
// the key is absent, null, or not a JSON object, the pre-review draft is
// returned unchanged. That fallback is the pipeline's only defined recovery
// path for a missing or partial review.
func AcceptRevision(review json.RawMessage, revisedKey string, draft json.RawMessage) (json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(review, &m); err != nil {
		return draft, true
	}
	v, ok := m[revisedKey]
	if !ok {
		return draft, true
	}
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return draft, true
	}
	return v, false
}

func parseReviewReport(review json.RawMessage) types.ReviewReport {
	var report types.ReviewReport
	// Tolerate partial review payloads; the fallback path covers them.
	_ = json.Unmarshal(review, &report)
	if report.Issues == nil {
		report.Issues = []types.Issue{}
	}
	if report.Improvements == nil {
		report.Improvements = []string{}
	}
	return report
}
