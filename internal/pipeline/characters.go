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

// ErrCastViolation reports a finalized character set that still breaks
// referential integrity after the repair pass.
var ErrCastViolation = errors.New("character set violates referential integrity")

const charactersDraftSystem = `You are a character-design engineer. From the
provided worldview and writing goals, generate a coherent cast of primary and
secondary characters.

Creative orientation (inspiration, not limits) — use five lenses per
character:
%s
Keep timelines self-consistent, respect the worldview's hard constraints and
physical common sense, and allow credible misremembering or bias where it is
clearly marked as unreliable. Write in the language named by the meta.`

var characterLenses = []string{
	"root: how the character connects to the world (origin, region, era, technology or belief environment)",
	"wound: psychological injury or emotional gap, shown through concrete memories and observable behavior rather than labels",
	"chain: key relationships and memory hooks (friends, mentors, enemies, family; gaps are allowed)",
	"face: the gap between public identity and self-narrative, self-deception included",
	"turn: the character arc — where beliefs come from and what could change them",
}

const charactersDraftTemplate = `%s

## Cast target
- primary characters: %d, secondary characters: %d

## Latitude
- Extend society, technology, and psychology boldly within the hard
  constraints.
- Give scene-ready detail and hooks; background stories may interlock across
  characters.
- Provide each character's potential goals (short/mid/long term).
- Leave open questions and foreshadowing material where useful.`

const charactersReviewSystem = `You are a character-set consistency reviewer.
1) Check the set against the worldview's hard constraints, internal
   self-consistency, timeline plausibility, and terminology.
2) Output issues ordered by severity, actionable improvements, and the
   revised character set.
3) Never change the worldview or the meta; revise only character fields.
4) Keep credible misremembering, but mark its unreliability explicitly.`

const charactersReviewTemplate = `## Worldview
%s

## Meta
%s

## Character set under review (draft)
%s`

const charactersRepairTemplate = `The character set below failed a mechanical
reference check. Repair it so every finding is resolved, changing as little
else as possible. Ids must be unique and every relationship target must
reference a character in the set.

## Findings
%s

## Character set to repair
%s`

// CharacterStage produces the character set from the finalized worldview.
// The set is reviewed as a whole, not per character.
type CharacterStage struct {
	Client       llm.Client
	StrongModel  string
	WeakModel    string
	Seed         int64
	NumPrimary   int
	NumSecondary int
}

func (s *CharacterStage) Run(ctx context.Context, meta types.Meta, worldview json.RawMessage) (*CharactersArtifact, error) {
	numPrimary, numSecondary := s.NumPrimary, s.NumSecondary
	if numPrimary <= 0 {
		numPrimary = 2
	}
	if numSecondary <= 0 {
		numSecondary = 8
	}

	r := localRand(s.Seed, "characters")
	proto := &Protocol{
		Client:            s.Client,
		Kind:              "characters",
		Schema:            schema.CharacterSet(),
		SchemaName:        "CharacterSet",
		ReviewSchema:      schema.Review("revised_characters", schema.CharacterSet()),
		DraftModel:        s.StrongModel,
		ReviewModel:       s.StrongModel,
		ValidateModel:     s.WeakModel,
		DraftTemperature:  0.95,
		ReviewTemperature: 0.4,
	}

	worldviewAndMeta := mustJSON(map[string]json.RawMessage{
		"worldview": worldview,
		"meta":      json.RawMessage(mustJSON(meta)),
	})
	draftSystem := fmt.Sprintf(charactersDraftSystem, bullets(shuffled(r, characterLenses)))
	draftUser := fmt.Sprintf(charactersDraftTemplate, worldviewAndMeta, numPrimary, numSecondary)

	res, err := proto.Run(ctx, draftSystem, draftUser, charactersReviewSystem,
		func(draft json.RawMessage) string {
			return fmt.Sprintf(charactersReviewTemplate,
				string(worldview), mustJSON(meta), string(draft))
		},
	)
	if err != nil {
		return nil, err
	}

	requested := types.CharacterCounts{Primary: numPrimary, Secondary: numSecondary}
	final, err := backfillCounts(res.Final, requested)
	if err != nil {
		return nil, err
	}

	final, validation, err := s.enforce(ctx, proto, final, requested)
	if err != nil {
		return nil, err
	}

	return &CharactersArtifact{
		Seed:            s.Seed,
		CountsRequested: requested,
		Draft:           res.Draft,
		ReviewReport:    res.Report,
		Validation:      validation,
		Final:           final,
	}, nil
}

// enforce checks the finalized set's referential integrity (unique ids,
// resolvable relationship targets) and, on violation, requests one
// regeneration pass before rejecting.
func (s *CharacterStage) enforce(ctx context.Context, proto *Protocol, final json.RawMessage,
	requested types.CharacterCounts) (json.RawMessage, *conflict.Report, error) {

	check := func(raw json.RawMessage) (*conflict.Report, error) {
		var set types.CharacterSet
		if err := json.Unmarshal(raw, &set); err != nil {
			return nil, fmt.Errorf("characters: decode final set: %w", err)
		}
		return conflict.ValidateCharacters(set), nil
	}

	report, err := check(final)
	if err != nil {
		return nil, nil, err
	}
	if report.OK() {
		return final, report, nil
	}

	repairRaw, err := s.Client.Generate(llm.WithStage(ctx, "characters.repair"), llm.Request{
		Model:       s.StrongModel,
		System:      charactersReviewSystem,
		User:        fmt.Sprintf(charactersRepairTemplate, report.Summary(), string(final)),
		Schema:      proto.ReviewSchema,
		SchemaName:  "CharacterSetRepair",
		Temperature: 0.4,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("characters repair: %w", err)
	}

	repaired, _ := AcceptRevision(repairRaw, "revised_characters", final)
	repaired, err = proto.Conform(ctx, repaired)
	if err != nil {
		return nil, nil, err
	}
	repaired, err = backfillCounts(repaired, requested)
	if err != nil {
		return nil, nil, err
	}

	report, err = check(repaired)
	if err != nil {
		return nil, nil, err
	}
	if !report.OK() {
		return nil, report, fmt.Errorf("%w after repair:\n%s", ErrCastViolation, report.Summary())
	}
	return repaired, report, nil
}

// backfillCounts fills the counts block when the model omitted it.
func backfillCounts(raw json.RawMessage, requested types.CharacterCounts) (json.RawMessage, error) {
	var set types.CharacterSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("characters: decode final set: %w", err)
	}
	if set.Counts != (types.CharacterCounts{}) {
		return raw, nil
	}
	set.Counts = requested
	b, err := json.Marshal(set)
	if err != nil {
		return nil, err
	}
	return b, nil
}
