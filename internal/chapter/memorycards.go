package chapter

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/types"
)

// UpdateLoadWarning is recorded in prior_updates when the carry-over file
// exists but cannot be parsed.
const UpdateLoadWarning = "_warn: failed_to_load_update_json"

const memoryCardsSystem = `You are the lore assistant. From a very large body
of setting material, select only the memory cards this chapter requires, so
the writer is not overloaded.
Constraints:
- No prose; output memory cards only.
- Prioritize hard setting constraints, terminology usage rules where needed,
  and warnings about settings likely to collide.
- When a previous chapter's update is provided, fold its inheritable changes
  into prior_updates.`

const memoryCardsTemplate = `## Meta (binding)
%s

## Director decision
%s

## Setting sources
- Worldview:
%s
- Characters and conflicts:
%s
- Previous chapter update (may be empty):
%s

Return the memory cards.`

type MemoryCardStep struct {
	Client llm.Client
	Model  string
}

// Run curates the chapter's memory cards. priorUpdate is the opaque
// carry-over object (already loaded tolerantly); loadWarn is non-empty when
// loading failed, and is recorded in prior_updates so the failure is visible
// without ever being fatal.
func (m *MemoryCardStep) Run(ctx context.Context, in Inputs, decision types.DirectorDecision,
	priorUpdate json.RawMessage, loadWarn string) (types.MemoryCards, error) {

	user := fmt.Sprintf(memoryCardsTemplate,
		mustJSON(in.Meta),
		mustJSON(decision),
		string(in.Worldview),
		mustJSON(map[string]json.RawMessage{
			"characters": orEmpty(in.Characters),
			"conflicts":  orEmpty(in.Conflicts),
		}),
		string(orEmpty(priorUpdate)),
	)

	raw, err := m.Client.Generate(llm.WithStage(ctx, "memory_cards.draft"), llm.Request{
		Model:       m.Model,
		System:      memoryCardsSystem,
		User:        user,
		Schema:      schema.MemoryCards(),
		SchemaName:  "MemoryCards",
		Temperature: 0.4,
	})
	if err != nil {
		return types.MemoryCards{}, fmt.Errorf("memory cards: %w", err)
	}
	var cards types.MemoryCards
	if err := json.Unmarshal(raw, &cards); err != nil {
		return types.MemoryCards{}, fmt.Errorf("memory cards: decode: %w", err)
	}

	if cards.PriorUpdates == nil {
		cards.PriorUpdates = []string{}
	}
	if loadWarn != "" && !contains(cards.PriorUpdates, loadWarn) {
		cards.PriorUpdates = append(cards.PriorUpdates, loadWarn)
	}
	return cards, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
