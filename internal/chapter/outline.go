package chapter

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/types"
)

const outlineSystem = `You are the outline planner. From the director decision
and the memory cards, plan this chapter as 4-8 sections of roughly 2000 words
each.
- No prose; structure only.
- Every section states section_goal, conflict_hook, pov, foreshadow_slots,
  and noise_budget.`

const outlineTemplate = `## Meta (binding)
%s

## Director decision
%s

## Memory cards (the chapter's required setting)
%s

Return the chapter outline.`

type OutlineStep struct {
	Client llm.Client
	Model  string
}

func (o *OutlineStep) Run(ctx context.Context, meta types.Meta,
	decision types.DirectorDecision, cards types.MemoryCards) (types.ChapterOutline, error) {

	user := fmt.Sprintf(outlineTemplate, mustJSON(meta), mustJSON(decision), mustJSON(cards))

	raw, err := o.Client.Generate(llm.WithStage(ctx, "chapter_outline.draft"), llm.Request{
		Model:       o.Model,
		System:      outlineSystem,
		User:        user,
		Schema:      schema.ChapterOutline(),
		SchemaName:  "ChapterOutline",
		Temperature: 0.55,
	})
	if err != nil {
		return types.ChapterOutline{}, fmt.Errorf("chapter outline: %w", err)
	}
	var outline types.ChapterOutline
	if err := json.Unmarshal(raw, &outline); err != nil {
		return types.ChapterOutline{}, fmt.Errorf("chapter outline: decode: %w", err)
	}
	return outline, nil
}
