package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"storyforge/internal/tester"
	"storyforge/internal/types"
)

const goodNetwork = `{
  "actors": [
    {"id": "p1", "display_name": "Aldan", "role": "primary"},
    {"id": "p2", "display_name": "Mirel", "role": "primary"}
  ],
  "goals": [
    {"goal_id": "g1", "owner_id": "p1", "tier": "short", "title": "secure the ledger"},
    {"goal_id": "g2", "owner_id": "p2", "tier": "long", "title": "expose the ledger"}
  ],
  "links": [
    {"source_goal_id": "g1", "target_goal_id": "g2", "relation": "blocks"}
  ]
}`

// brokenNetwork leaves g2 isolated and the primary pair unopposed.
const brokenNetwork = `{
  "actors": [
    {"id": "p1", "display_name": "Aldan", "role": "primary"},
    {"id": "p2", "display_name": "Mirel", "role": "primary"}
  ],
  "goals": [
    {"goal_id": "g1", "owner_id": "p1", "tier": "short", "title": "secure the ledger"},
    {"goal_id": "g2", "owner_id": "p2", "tier": "long", "title": "expose the ledger"}
  ],
  "links": [
    {"source_goal_id": "g1", "target_goal_id": "g1", "relation": "depends"}
  ]
}`

func testCharacters() types.CharacterSet {
	return types.CharacterSet{
		Counts: types.CharacterCounts{Primary: 2},
		Characters: []types.Character{
			{ID: "p1", Role: types.RolePrimary, DisplayName: "Aldan"},
			{ID: "p2", Role: types.RolePrimary, DisplayName: "Mirel"},
		},
	}
}

func TestConflictStageSkipsRepairWhenValid(t *testing.T) {
	client := newScriptClient(map[string]json.RawMessage{
		"conflicts.draft":  json.RawMessage(goodNetwork),
		"conflicts.review": json.RawMessage(`{"issues":[],"improvements":[]}`),
	})
	stage := &ConflictStage{Client: client, StrongModel: "strong", WeakModel: "weak", Seed: 7}

	art, err := stage.Run(context.Background(), json.RawMessage(`{"w":1}`), testCharacters())
	tester.NoErr(t, err)
	tester.True(t, art.Validation.OK())
	tester.Eq(t, client.calls["conflicts.repair"], 0)
}

func TestConflictStageRepairsOnce(t *testing.T) {
	client := newScriptClient(map[string]json.RawMessage{
		"conflicts.draft":  json.RawMessage(brokenNetwork),
		"conflicts.review": json.RawMessage(`{"issues":[],"improvements":[]}`),
		"conflicts.repair": json.RawMessage(`{"issues":[],"improvements":[],"revised_conflicts":` + goodNetwork + `}`),
	})
	stage := &ConflictStage{Client: client, StrongModel: "strong", WeakModel: "weak", Seed: 7}

	art, err := stage.Run(context.Background(), json.RawMessage(`{"w":1}`), testCharacters())
	tester.NoErr(t, err)
	tester.Eq(t, client.calls["conflicts.repair"], 1)
	tester.True(t, art.Validation.OK())

	var net types.ConflictNetwork
	tester.NoErr(t, json.Unmarshal(art.Final, &net))
	tester.Eq(t, len(net.Links), 1)
	tester.Eq(t, net.Links[0].Relation, "blocks")

	// The repair prompt carried the mechanical findings.
	tester.True(t, strings.Contains(client.users["conflicts.repair"], "isolated_goal"))
	tester.True(t, strings.Contains(client.users["conflicts.repair"], "missing_primary_conflict"))
}

// fullCastNetwork extends goodNetwork with the secondary cast member s1.
const fullCastNetwork = `{
  "actors": [
    {"id": "p1", "display_name": "Aldan", "role": "primary"},
    {"id": "p2", "display_name": "Mirel", "role": "primary"},
    {"id": "s1", "display_name": "Tovek", "role": "secondary"}
  ],
  "goals": [
    {"goal_id": "g1", "owner_id": "p1", "tier": "short", "title": "secure the ledger"},
    {"goal_id": "g2", "owner_id": "p2", "tier": "long", "title": "expose the ledger"},
    {"goal_id": "g3", "owner_id": "s1", "tier": "mid", "title": "keep the audit post"}
  ],
  "links": [
    {"source_goal_id": "g1", "target_goal_id": "g2", "relation": "blocks"},
    {"source_goal_id": "g3", "target_goal_id": "g1", "relation": "supports"}
  ]
}`

func fullCastCharacters() types.CharacterSet {
	set := testCharacters()
	set.Counts.Secondary = 1
	set.Characters = append(set.Characters,
		types.Character{ID: "s1", Role: types.RoleSecondary, DisplayName: "Tovek"})
	return set
}

func TestConflictStageRepairsDroppedCastMember(t *testing.T) {
	// The draft is internally consistent but silently drops s1 from the cast.
	client := newScriptClient(map[string]json.RawMessage{
		"conflicts.draft":  json.RawMessage(goodNetwork),
		"conflicts.review": json.RawMessage(`{"issues":[],"improvements":[]}`),
		"conflicts.repair": json.RawMessage(`{"issues":[],"improvements":[],"revised_conflicts":` + fullCastNetwork + `}`),
	})
	stage := &ConflictStage{Client: client, StrongModel: "strong", WeakModel: "weak", Seed: 7}

	art, err := stage.Run(context.Background(), json.RawMessage(`{"w":1}`), fullCastCharacters())
	tester.NoErr(t, err)
	tester.Eq(t, client.calls["conflicts.repair"], 1)
	tester.True(t, art.Validation.OK())
	tester.True(t, strings.Contains(client.users["conflicts.repair"], "missing_cast_actor"))

	var net types.ConflictNetwork
	tester.NoErr(t, json.Unmarshal(art.Final, &net))
	tester.Eq(t, len(net.Actors), 3)
}

func TestConflictStageRejectsInventedActor(t *testing.T) {
	// The network keeps inventing an actor the character set never defined.
	invented := strings.Replace(fullCastNetwork, `"id": "s1"`, `"id": "x9"`, 1)
	invented = strings.Replace(invented, `"owner_id": "s1"`, `"owner_id": "x9"`, 1)
	client := newScriptClient(map[string]json.RawMessage{
		"conflicts.draft":  json.RawMessage(invented),
		"conflicts.review": json.RawMessage(`{"issues":[],"improvements":[]}`),
		"conflicts.repair": json.RawMessage(`{"issues":[],"improvements":[],"revised_conflicts":` + invented + `}`),
	})
	stage := &ConflictStage{Client: client, StrongModel: "strong", WeakModel: "weak", Seed: 7}

	_, err := stage.Run(context.Background(), json.RawMessage(`{"w":1}`), fullCastCharacters())
	tester.Err(t, err)
	tester.True(t, errors.Is(err, ErrInvariantViolation))
	tester.True(t, strings.Contains(err.Error(), "unknown_actor"))
	tester.True(t, strings.Contains(err.Error(), "missing_cast_actor"))
}

func TestConflictStageFailsAfterOneRepair(t *testing.T) {
	client := newScriptClient(map[string]json.RawMessage{
		"conflicts.draft":  json.RawMessage(brokenNetwork),
		"conflicts.review": json.RawMessage(`{"issues":[],"improvements":[]}`),
		"conflicts.repair": json.RawMessage(`{"issues":[],"improvements":[],"revised_conflicts":` + brokenNetwork + `}`),
	})
	stage := &ConflictStage{Client: client, StrongModel: "strong", WeakModel: "weak", Seed: 7}

	_, err := stage.Run(context.Background(), json.RawMessage(`{"w":1}`), testCharacters())
	tester.Err(t, err)
	tester.True(t, errors.Is(err, ErrInvariantViolation))
	tester.Eq(t, client.calls["conflicts.repair"], 1)
}

func TestActorIndexProjection(t *testing.T) {
	actors := ActorIndex(testCharacters())
	tester.Eq(t, len(actors), 2)
	tester.Eq(t, actors[0], types.Actor{ID: "p1", DisplayName: "Aldan", Role: types.RolePrimary})
}

func TestLocalRandIsStagePinned(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	first := shuffled(localRand(42, "worldview"), lines)
	again := shuffled(localRand(42, "worldview"), lines)
	tester.Eq(t, first, again)

	// Different stage names derive different PRNG streams.
	tester.True(t, localRand(42, "worldview").Int63() != localRand(42, "characters").Int63())
}
