package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/types"
)

const worldviewAdvisorSystem = `You are a senior writing mentor. Given a request
about a planned work, respond with concrete, practical guidance only. No
follow-up questions, no filler.`

const worldviewAdviceTemplate = `I am about to create the foundational worldview
for a serialized story. Tell me what such a worldview must contain so the
setting stays interesting and writable over a long run.
Produce only "world background and operating rules" advice. Never suggest
protagonists, side characters, plot beats, quests, chapters, scenes, or
dialogue.

## Meta
%s

Give 3-5 concise suggestions.`

const worldviewDraftSystem = `You are a worldbuilding engineer. Input: the story
meta. Output: a worldview — a clearly structured, information-dense,
highly writable set of world background rules able to sustain serialized
writing long-term.

Hard constraints:
1) Produce only world background and operating rules. Never include
   protagonists, side characters, plot beats, quests, chapters, scenes,
   dialogue, or standalone scene hooks. If the meta contains any, ignore them.
2) Invent at least six self-named facets beyond the user's fields, each
   internally coherent, with concrete axioms, costs, limits, and risks.
3) State checkable consistency rules explicitly.
4) Write in the language named by the meta.`

const worldviewDraftTemplate = `Generate the worldview from the meta and the
advisor suggestions below, conforming to the response schema.

# Meta
%s

# Advisor suggestions
%s`

const worldviewReviewSystemTemplate = `You are a worldview reviewer. Input: the
meta and a worldview draft. Check internal consistency, clear boundaries, and
long-run writability, then revise once.

Hard constraints:
- Never introduce characters, plots, quests, chapters, or dialogue; every
  change stays at the level of world background and rules.
- Do not alter the meta; only the worldview under review.

Raise the setting's interest using strategies including but not limited to:
%s
Output issues ordered by severity, actionable improvements, and the revised
worldview (copy the draft where no change is needed).`

const worldviewReviewTemplate = `Review the following meta and worldview draft.

## Meta
%s

## Worldview draft
%s`

// Emphasis lines fed to the reviewer; order is seed-varied per run.
var worldviewReviewStrategies = []string{
	"add opposing forces and structural tension",
	"enrich distinctive culture, technology, and ecology detail",
	"plant unresolved mysteries and hidden pressures",
	"define boundaries and the cost of breaking each rule",
	"give the world an origin story and formative events",
}

// WorldviewStage produces the worldview artifact from the meta via an
// advisor pass plus the standard four-step protocol.
type WorldviewStage struct {
	Client      llm.Client
	StrongModel string
	WeakModel   string
	Seed        int64
}

func (s *WorldviewStage) Run(ctx context.Context, meta types.Meta) (*WorldviewArtifact, error) {
	advice, err := s.advise(ctx, meta)
	if err != nil {
		return nil, err
	}

	r := localRand(s.Seed, "worldview")
	proto := &Protocol{
		Client:            s.Client,
		Kind:              "worldview",
		Schema:            schema.Worldview(),
		SchemaName:        "Worldview",
		ReviewSchema:      schema.Review("revised_worldview", schema.Worldview()),
		DraftModel:        s.StrongModel,
		ReviewModel:       s.StrongModel,
		ValidateModel:     s.WeakModel,
		DraftTemperature:  0.95,
		ReviewTemperature: 0.4,
	}

	metaJSON := mustJSON(meta)
	reviewSystem := fmt.Sprintf(worldviewReviewSystemTemplate,
		bullets(shuffled(r, worldviewReviewStrategies)))

	res, err := proto.Run(ctx,
		worldviewDraftSystem,
		fmt.Sprintf(worldviewDraftTemplate, metaJSON, advice),
		reviewSystem,
		func(draft json.RawMessage) string {
			return fmt.Sprintf(worldviewReviewTemplate, metaJSON, string(draft))
		},
	)
	if err != nil {
		return nil, err
	}

	return &WorldviewArtifact{
		Seed:         s.Seed,
		Advice:       advice,
		Draft:        res.Draft,
		ReviewReport: res.Report,
		Final:        res.Final,
	}, nil
}

func (s *WorldviewStage) advise(ctx context.Context, meta types.Meta) (string, error) {
	raw, err := s.Client.Generate(llm.WithStage(ctx, "worldview.advice"), llm.Request{
		Model:       s.StrongModel,
		System:      worldviewAdvisorSystem,
		User:        fmt.Sprintf(worldviewAdviceTemplate, mustJSON(meta)),
		Schema:      schema.Guidance(),
		SchemaName:  "guidance_response",
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("worldview advice: %w", err)
	}
	var out struct {
		Guidance string `json:"guidance"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("worldview advice: %w", err)
	}
	return out.Guidance, nil
}
