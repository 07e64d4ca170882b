// Package chapter implements the chapter-bootstrap chain: director decision,
// memory-card curation, then section outline. The steps are draft-only (no
// review pass) and each artifact is persisted before the next step runs.
package chapter

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/types"
)

const directorSystem = `You are the chapter director. Decide this chapter's
writing technique, point-of-view strategy, emotional curve, and
information-drip budget, and name the conflict entry point.
Rules:
1) No prose; output decision parameters only.
2) Optimize for maximal tension with traceable causality; avoid omniscient
   information overload.`

const directorGenericTemplate = `## Meta (binding)
%s

## Source material
- Previous chapter summary (may be empty):
%s

- Final worldview (long; consult as needed):
%s

- Characters and conflicts (long; consult as needed):
%s

Produce this chapter's director decision.`

// Chapter one carries its own branch: the director must judge the minimum
// background a reader needs and encode it in the info budget.
const directorChapterOneTemplate = `## Meta (binding)
%s

You are directing CHAPTER ONE. Requirements:
1) Read the worldview and characters in full, judge the minimum background a
   reader needs to follow the chapter, and encode that judgment in
   info_budget (do not overload).
2) The technique must work as an opening; in medias res is allowed, but the
   minimum background must stay inferable.
3) Name the conflict entry point (conflict_focus) so character agency drives
   the scene.
4) Give 3-6 notes describing the reader-side background-building strategy.

## Final worldview
%s

## Characters and conflicts
%s`

type DirectorStep struct {
	Client llm.Client
	Model  string
}

func (d *DirectorStep) Run(ctx context.Context, in Inputs, chapterIndex int, prevSummary string) (types.DirectorDecision, error) {
	metaJSON := mustJSON(in.Meta)
	charsConflicts := mustJSON(map[string]json.RawMessage{
		"characters": orEmpty(in.Characters),
		"conflicts":  orEmpty(in.Conflicts),
	})

	var user string
	if chapterIndex == 1 {
		user = fmt.Sprintf(directorChapterOneTemplate,
			metaJSON, string(in.Worldview), charsConflicts)
	} else {
		user = fmt.Sprintf(directorGenericTemplate,
			metaJSON, prevSummary, string(in.Worldview), charsConflicts)
	}

	raw, err := d.Client.Generate(llm.WithStage(ctx, "director.draft"), llm.Request{
		Model:       d.Model,
		System:      directorSystem,
		User:        user,
		Schema:      schema.DirectorDecision(),
		SchemaName:  "DirectorDecision",
		Temperature: 0.6,
	})
	if err != nil {
		return types.DirectorDecision{}, fmt.Errorf("director decision: %w", err)
	}
	var decision types.DirectorDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return types.DirectorDecision{}, fmt.Errorf("director decision: decode: %w", err)
	}
	return decision, nil
}

func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
