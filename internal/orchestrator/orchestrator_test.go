package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"storyforge/internal/llm"
	"storyforge/internal/store"
	"storyforge/internal/tester"
	"storyforge/internal/types"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *llm.FakeClient, *store.TaskStore) {
	t.Helper()
	st, err := store.Open(t.TempDir(), "demo")
	tester.NoErr(t, err)
	fake := llm.NewFakeClient()
	return &Orchestrator{
		Client:      fake,
		Store:       st,
		StrongModel: "strong",
		WeakModel:   "weak",
		Seed:        42,
	}, fake, st
}

func TestRunProducesAllArtifacts(t *testing.T) {
	orc, _, st := newTestOrchestrator(t)

	res, err := orc.Run(context.Background(), types.Meta{GenreTone: "dust-punk"})
	tester.NoErr(t, err)

	for _, f := range []string{store.MetaFile, store.WorldviewFile, store.CharactersFile, store.ConflictsFile} {
		tester.True(t, st.Exists(f), f)
	}
	tester.True(t, len(res.Worldview) > 0)
	tester.True(t, len(res.Conflicts) > 0)
	tester.Eq(t, len(res.Characters.Characters), 4)

	for _, s := range []Stage{StageWorldview, StageCharacters, StageConflicts} {
		tester.True(t, res.State[s].Done, string(s))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	orc, fake, _ := newTestOrchestrator(t)

	_, err := orc.Run(context.Background(), types.Meta{})
	tester.NoErr(t, err)
	after := fake.Calls()

	res, err := orc.Run(context.Background(), types.Meta{})
	tester.NoErr(t, err)
	tester.Eq(t, fake.Calls(), after, "second run must not generate")
	tester.Eq(t, len(res.Characters.Characters), 4)
}

func TestRunSkipsPreseededStage(t *testing.T) {
	orc, fake, st := newTestOrchestrator(t)

	// A previously persisted worldview, in wrapped form.
	seeded := map[string]any{
		"seed":            7,
		"final_worldview": map[string]string{"genre_tone": "seeded"},
	}
	tester.NoErr(t, st.WriteJSON(store.WorldviewFile, seeded))

	res, err := orc.Run(context.Background(), types.Meta{})
	tester.NoErr(t, err)

	tester.Eq(t, fake.CallsFor("worldview.draft"), 0)
	tester.Eq(t, fake.CallsFor("worldview.advice"), 0)
	tester.Eq(t, fake.CallsFor("characters.draft"), 1)
	tester.Eq(t, fake.CallsFor("conflicts.draft"), 1)

	var wv map[string]string
	tester.NoErr(t, json.Unmarshal(res.Worldview, &wv))
	tester.Eq(t, wv["genre_tone"], "seeded")
}

func TestLoadState(t *testing.T) {
	st, err := store.Open(t.TempDir(), "demo")
	tester.NoErr(t, err)
	tester.NoErr(t, st.WriteJSON(store.ConflictsFile, map[string]int{}))

	state := LoadState(st)
	tester.False(t, state[StageWorldview].Done)
	tester.False(t, state[StageCharacters].Done)
	tester.True(t, state[StageConflicts].Done)
	tester.Eq(t, state[StageConflicts].Ref, store.ConflictsFile)
}

func TestRunKeepsExistingMeta(t *testing.T) {
	orc, _, st := newTestOrchestrator(t)
	tester.NoErr(t, st.WriteJSON(store.MetaFile, types.Meta{GenreTone: "original"}))

	_, err := orc.Run(context.Background(), types.Meta{GenreTone: "other"})
	tester.NoErr(t, err)

	var meta types.Meta
	tester.NoErr(t, st.ReadInto(store.MetaFile, &meta))
	tester.Eq(t, meta.GenreTone, "original")
}
