// Package orchestrator sequences the artifact stages in dependency order
// (worldview, characters, conflicts) with idempotent skip-if-exists caching
// over the task store.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"storyforge/internal/llm"
	"storyforge/internal/pipeline"
	"storyforge/internal/store"
	"storyforge/internal/types"
)

// Stage identifies one pipeline stage.
type Stage string

const (
	StageWorldview  Stage = "worldview"
	StageCharacters Stage = "characters"
	StageConflicts  Stage = "conflicts"
)

// Status records whether a stage's artifact already exists and where.
type Status struct {
	Done bool
	Ref  string // artifact file name within the task store
}

// State is the explicit pipeline state record, probed from the store before
// a run and threaded through it. Resumption logic never re-infers state
// from filesystem side effects mid-run.
type State map[Stage]Status

var stageFiles = map[Stage]string{
	StageWorldview:  store.WorldviewFile,
	StageCharacters: store.CharactersFile,
	StageConflicts:  store.ConflictsFile,
}

// LoadState probes the store for each stage's artifact.
func LoadState(st *store.TaskStore) State {
	state := State{}
	for stage, file := range stageFiles {
		state[stage] = Status{Done: st.Exists(file), Ref: file}
	}
	return state
}

// Orchestrator drives one task run. A single run-level seed flows into every
// stage; stages never invent their own.
type Orchestrator struct {
	Client      llm.Client
	Store       *store.TaskStore
	StrongModel string
	WeakModel   string
	Seed        int64

	NumPrimary   int
	NumSecondary int
}

// Result exposes the final unwrapped artifacts of a run.
type Result struct {
	State      State
	Worldview  json.RawMessage
	Characters types.CharacterSet
	Conflicts  json.RawMessage
}

// Run executes the three artifact stages strictly sequentially. Stages whose
// artifact already exists are skipped and loaded; a failed stage persists
// nothing, so the next invocation retries it from scratch.
func (o *Orchestrator) Run(ctx context.Context, meta types.Meta) (*Result, error) {
	state := LoadState(o.Store)

	if !o.Store.Exists(store.MetaFile) {
		if err := o.Store.WriteJSON(store.MetaFile, meta); err != nil {
			return nil, err
		}
	}

	worldview, err := o.worldview(ctx, state, meta)
	if err != nil {
		return nil, err
	}
	characters, err := o.characters(ctx, state, meta, worldview)
	if err != nil {
		return nil, err
	}
	conflicts, err := o.conflicts(ctx, state, worldview, characters)
	if err != nil {
		return nil, err
	}

	return &Result{
		State:      state,
		Worldview:  worldview,
		Characters: characters,
		Conflicts:  conflicts,
	}, nil
}

func (o *Orchestrator) worldview(ctx context.Context, state State, meta types.Meta) (json.RawMessage, error) {
	if state[StageWorldview].Done {
		log.Printf("worldview: artifact exists, skipping generation")
		return o.loadFinal(StageWorldview)
	}
	stage := &pipeline.WorldviewStage{
		Client:      o.Client,
		StrongModel: o.StrongModel,
		WeakModel:   o.WeakModel,
		Seed:        o.Seed,
	}
	artifact, err := stage.Run(ctx, meta)
	if err != nil {
		return nil, err
	}
	if err := o.persist(state, StageWorldview, artifact); err != nil {
		return nil, err
	}
	return artifact.Final, nil
}

func (o *Orchestrator) characters(ctx context.Context, state State, meta types.Meta, worldview json.RawMessage) (types.CharacterSet, error) {
	var final json.RawMessage
	if state[StageCharacters].Done {
		log.Printf("characters: artifact exists, skipping generation")
		var err error
		final, err = o.loadFinal(StageCharacters)
		if err != nil {
			return types.CharacterSet{}, err
		}
	} else {
		stage := &pipeline.CharacterStage{
			Client:       o.Client,
			StrongModel:  o.StrongModel,
			WeakModel:    o.WeakModel,
			Seed:         o.Seed,
			NumPrimary:   o.NumPrimary,
			NumSecondary: o.NumSecondary,
		}
		artifact, err := stage.Run(ctx, meta, worldview)
		if err != nil {
			return types.CharacterSet{}, err
		}
		if err := o.persist(state, StageCharacters, artifact); err != nil {
			return types.CharacterSet{}, err
		}
		final = artifact.Final
	}

	var set types.CharacterSet
	if err := json.Unmarshal(final, &set); err != nil {
		return types.CharacterSet{}, fmt.Errorf("characters: decode final set: %w", err)
	}
	return set, nil
}

func (o *Orchestrator) conflicts(ctx context.Context, state State, worldview json.RawMessage, characters types.CharacterSet) (json.RawMessage, error) {
	if state[StageConflicts].Done {
		log.Printf("conflicts: artifact exists, skipping generation")
		return o.loadFinal(StageConflicts)
	}
	stage := &pipeline.ConflictStage{
		Client:      o.Client,
		StrongModel: o.StrongModel,
		WeakModel:   o.WeakModel,
		Seed:        o.Seed,
	}
	artifact, err := stage.Run(ctx, worldview, characters)
	if err != nil {
		return nil, err
	}
	if err := o.persist(state, StageConflicts, artifact); err != nil {
		return nil, err
	}
	return artifact.Final, nil
}

// loadFinal reads a persisted stage artifact and unwraps it; both the raw
// value and the {"final_<stage>": value} wrapping are accepted.
func (o *Orchestrator) loadFinal(stage Stage) (json.RawMessage, error) {
	raw, err := o.Store.ReadRaw(stageFiles[stage])
	if err != nil {
		return nil, fmt.Errorf("%s: load artifact: %w", stage, err)
	}
	return store.Unwrap(raw, string(stage)), nil
}

func (o *Orchestrator) persist(state State, stage Stage, artifact any) error {
	file := stageFiles[stage]
	if err := o.Store.WriteJSON(file, artifact); err != nil {
		return fmt.Errorf("%s: persist artifact: %w", stage, err)
	}
	state[stage] = Status{Done: true, Ref: file}
	return nil
}
