package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storyforge/internal/conflict"
	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/types"
)

// ErrInvariantViolation reports a finalized conflict network that still
// breaks the graph invariants after the repair pass.
var ErrInvariantViolation = errors.New("conflict network violates graph invariants")

const conflictsDraftSystem = `You are a goal-and-conflict network designer.
From the provided worldview and character cards:
- Give every actor current motivations and goals, tiered short/mid/long.
- Goals must interlock: connect them with typed links
  (supports, blocks, competes, depends, enables, mutual_exclusion).
  Isolated goals are forbidden — every goal appears in at least one link.
- Between every pair of primary actors there must be at least one
  blocks/competes/mutual_exclusion link connecting their goals.
- Goals must be operational and checkable (success_conditions,
  failure_risks, metrics) and consistent with the worldview's hard
  constraints (cite world_refs).
- Every actor must own at least one goal.

Do not write plot scenes; design the structure of goals and tension only.
Write in the language named by the meta.`

const conflictsDraftTemplate = `## Worldview
%s

## Character cards (verbatim, for memory and relationship grounding)
%s

## Actor index (id / display_name / role)
%s

## Modeling requirements
- Derive motivations and goals from the characters' backgrounds and
  memories; tier them short/mid/long.
- Build links of several relation kinds so the goals form one network.
- At least one blocks/competes/mutual_exclusion link between the goals of
  every pair of primary actors.
- Every goal in at least one link; no isolated goals.
- For the key tension clusters, explain why they matter and how they could
  escalate or de-escalate.`

const conflictsReviewSystem = `You are a goal-network consistency reviewer.
1) Check tier plausibility (short/mid/long), worldview consistency,
   connectivity (no isolated goals), per-actor goal coverage, and the
   presence of opposition links between every pair of primary actors.
2) Where needed, revise: sharpen goal descriptions, fix tiers, add or rewire
   links, and fill in success_conditions / failure_risks / metrics.
3) Output issues, improvements, and the revised network. Never change the
   worldview or the character cards.`

const conflictsReviewTemplate = `## Worldview (for consistency checking)
%s

## Character cards (for consistency checking)
%s

## Conflict network under review (draft)
%s`

const conflictsRepairTemplate = `The conflict network below failed a mechanical
graph check. Repair it so every finding is resolved, changing as little else
as possible.

## Findings
%s

## Worldview (for consistency checking)
%s

## Character cards (for consistency checking)
%s

## Conflict network to repair
%s`

// ConflictStage builds the goal/conflict network from the finalized
// worldview and character set. The graph invariants are asserted in the
// prompts, re-checked by the reviewer, and enforced mechanically afterwards:
// one repair round-trip is requested on violation, then the stage fails.
type ConflictStage struct {
	Client      llm.Client
	StrongModel string
	WeakModel   string
	Seed        int64
}

func (s *ConflictStage) Run(ctx context.Context, worldview json.RawMessage, characters types.CharacterSet) (*ConflictsArtifact, error) {
	actors := ActorIndex(characters)

	proto := &Protocol{
		Client:            s.Client,
		Kind:              "conflicts",
		Schema:            schema.ConflictNetwork(),
		SchemaName:        "ConflictNetwork",
		ReviewSchema:      schema.Review("revised_conflicts", schema.ConflictNetwork()),
		DraftModel:        s.StrongModel,
		ReviewModel:       s.StrongModel,
		ValidateModel:     s.WeakModel,
		DraftTemperature:  0.95,
		ReviewTemperature: 0.4,
	}

	charactersJSON := mustJSON(characters)
	draftUser := fmt.Sprintf(conflictsDraftTemplate,
		string(worldview), charactersJSON, mustJSON(actors))

	res, err := proto.Run(ctx, conflictsDraftSystem, draftUser, conflictsReviewSystem,
		func(draft json.RawMessage) string {
			return fmt.Sprintf(conflictsReviewTemplate,
				string(worldview), charactersJSON, string(draft))
		},
	)
	if err != nil {
		return nil, err
	}

	final, report, err := s.enforce(ctx, proto, res.Final, worldview, charactersJSON, actors)
	if err != nil {
		return nil, err
	}

	return &ConflictsArtifact{
		Seed:         s.Seed,
		Draft:        res.Draft,
		ReviewReport: res.Report,
		Validation:   report,
		Final:        final,
	}, nil
}

// enforce validates the finalized network and, on violation, requests one
// regeneration pass before rejecting. The network is checked both for its
// internal graph invariants and against the actor index it was derived from:
// a network that drops cast members or invents actors fails.
func (s *ConflictStage) enforce(ctx context.Context, proto *Protocol, final json.RawMessage,
	worldview json.RawMessage, charactersJSON string, cast []types.Actor) (json.RawMessage, *conflict.Report, error) {

	check := func(raw json.RawMessage) (*conflict.Report, error) {
		net, err := decodeNetwork(raw)
		if err != nil {
			return nil, err
		}
		report := conflict.Validate(net)
		report.Merge(conflict.SyncWithCast(net, cast))
		return report, nil
	}

	report, err := check(final)
	if err != nil {
		return nil, nil, err
	}
	if report.OK() {
		return final, report, nil
	}

	repairRaw, err := s.Client.Generate(llm.WithStage(ctx, "conflicts.repair"), llm.Request{
		Model:  s.StrongModel,
		System: conflictsReviewSystem,
		User: fmt.Sprintf(conflictsRepairTemplate,
			report.Summary(), string(worldview), charactersJSON, string(final)),
		Schema:      proto.ReviewSchema,
		SchemaName:  "ConflictNetworkRepair",
		Temperature: 0.4,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("conflicts repair: %w", err)
	}

	repaired, _ := AcceptRevision(repairRaw, "revised_conflicts", final)
	repaired, err = proto.Conform(ctx, repaired)
	if err != nil {
		return nil, nil, err
	}

	report, err = check(repaired)
	if err != nil {
		return nil, nil, err
	}
	if !report.OK() {
		return nil, report, fmt.Errorf("%w after repair:\n%s", ErrInvariantViolation, report.Summary())
	}
	return repaired, report, nil
}

func decodeNetwork(raw json.RawMessage) (*types.ConflictNetwork, error) {
	var net types.ConflictNetwork
	if err := json.Unmarshal(raw, &net); err != nil {
		return nil, fmt.Errorf("conflicts: decode network: %w", err)
	}
	return &net, nil
}

// ActorIndex projects the character set onto the minimal actor index the
// conflict network keys its goals by.
func ActorIndex(set types.CharacterSet) []types.Actor {
	actors := make([]types.Actor, 0, len(set.Characters))
	for _, c := range set.Characters {
		actors = append(actors, types.Actor{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			Role:        c.Role,
		})
	}
	return actors
}
