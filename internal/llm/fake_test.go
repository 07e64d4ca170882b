package llm

import (
	"context"
	"encoding/json"
	"testing"

	"storyforge/internal/conflict"
	"storyforge/internal/tester"
	"storyforge/internal/types"
)

func TestFakeValidateEchoesPayload(t *testing.T) {
	f := NewFakeClient()
	doc := `{"genre_tone":"x","nested":{"a":[1,2]}}`

	out, err := f.Generate(WithStage(context.Background(), "worldview.validate"), Request{User: doc})
	tester.NoErr(t, err)
	tester.Eq(t, string(out), doc)
}

func TestFakeReviewCarriesRevision(t *testing.T) {
	f := NewFakeClient()
	out, err := f.Generate(WithStage(context.Background(), "worldview.review"), Request{})
	tester.NoErr(t, err)

	var m map[string]json.RawMessage
	tester.NoErr(t, json.Unmarshal(out, &m))
	_, ok := m["revised_worldview"]
	tester.True(t, ok)
}

func TestFakeCountsCallsPerStage(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.Generate(WithStage(ctx, "characters.draft"), Request{})
		tester.NoErr(t, err)
	}
	_, err := f.Generate(WithStage(ctx, "conflicts.draft"), Request{})
	tester.NoErr(t, err)

	tester.Eq(t, f.CallsFor("characters.draft"), 3)
	tester.Eq(t, f.CallsFor("conflicts.draft"), 1)
	tester.Eq(t, f.Calls(), 4)
}

func TestFakeConflictNetworkSatisfiesInvariants(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()

	out, err := f.Generate(WithStage(ctx, "conflicts.draft"), Request{})
	tester.NoErr(t, err)
	var net types.ConflictNetwork
	tester.NoErr(t, json.Unmarshal(out, &net))

	report := conflict.Validate(&net)
	tester.True(t, report.OK(), report.Summary())

	// The canned network's actor index matches the canned cast, so offline
	// runs persist mutually consistent artifacts.
	out, err = f.Generate(WithStage(ctx, "characters.draft"), Request{})
	tester.NoErr(t, err)
	var set types.CharacterSet
	tester.NoErr(t, json.Unmarshal(out, &set))
	tester.True(t, conflict.ValidateCharacters(set).OK())

	cast := make([]types.Actor, 0, len(set.Characters))
	for _, c := range set.Characters {
		cast = append(cast, types.Actor{ID: c.ID, DisplayName: c.DisplayName, Role: c.Role})
	}
	sync := conflict.SyncWithCast(&net, cast)
	tester.True(t, sync.OK(), sync.Summary())
}

func TestStageTagRoundTrip(t *testing.T) {
	ctx := WithStage(context.Background(), "worldview.draft")
	tester.Eq(t, StageFrom(ctx), "worldview.draft")
	tester.Eq(t, StageFrom(context.Background()), "unknown")
}
