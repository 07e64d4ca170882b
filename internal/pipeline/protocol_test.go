package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"storyforge/internal/llm"
	"storyforge/internal/schema"
	"storyforge/internal/tester"
)

// scriptClient answers per stage from a fixed script; stages without an entry
// echo the request payload (matching the conformance pass's contract).
type scriptClient struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	users     map[string]string
	calls     map[string]int
}

func newScriptClient(responses map[string]json.RawMessage) *scriptClient {
	return &scriptClient{
		responses: responses,
		users:     map[string]string{},
		calls:     map[string]int{},
	}
}

func (c *scriptClient) Name() string { return "script" }
func (c *scriptClient) Close() error { return nil }

func (c *scriptClient) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	stage := llm.StageFrom(ctx)
	c.mu.Lock()
	c.calls[stage]++
	c.users[stage] = req.User
	resp, ok := c.responses[stage]
	c.mu.Unlock()
	if ok {
		return resp, nil
	}
	return json.RawMessage(req.User), nil
}

func testProtocol(client llm.Client) *Protocol {
	return &Protocol{
		Client:            client,
		Kind:              "worldview",
		Schema:            schema.Worldview(),
		SchemaName:        "Worldview",
		ReviewSchema:      schema.Review("revised_worldview", schema.Worldview()),
		DraftModel:        "strong",
		ReviewModel:       "strong",
		ValidateModel:     "weak",
		DraftTemperature:  0.95,
		ReviewTemperature: 0.4,
	}
}

func runProtocol(t *testing.T, review json.RawMessage) (*Result, *scriptClient) {
	t.Helper()
	draft := json.RawMessage(`{"genre_tone":"draft","expansion":{"facets":[]}}`)
	client := newScriptClient(map[string]json.RawMessage{
		"worldview.draft":  draft,
		"worldview.review": review,
	})
	res, err := testProtocol(client).Run(context.Background(),
		"draft system", "draft user", "review system",
		func(d json.RawMessage) string { return "review of: " + string(d) })
	tester.NoErr(t, err)
	return res, client
}

func TestProtocolAcceptsRevision(t *testing.T) {
	review := json.RawMessage(`{"issues":[],"improvements":["tighten rules"],` +
		`"revised_worldview":{"genre_tone":"revised"}}`)
	res, client := runProtocol(t, review)

	tester.False(t, res.UsedDraft)
	tester.Eq(t, string(res.Final), `{"genre_tone":"revised"}`)
	tester.Eq(t, res.Report.Improvements, []string{"tighten rules"})

	// The reviewer saw the draft, and the conformance pass saw the revision.
	tester.Eq(t, client.users["worldview.review"],
		`review of: {"genre_tone":"draft","expansion":{"facets":[]}}`)
	tester.Eq(t, client.users["worldview.validate"], `{"genre_tone":"revised"}`)
	tester.Eq(t, client.calls["worldview.validate"], 1)
}

func TestProtocolFallsBackToDraftBitForBit(t *testing.T) {
	draft := `{"genre_tone":"draft","expansion":{"facets":[]}}`
	cases := map[string]string{
		"key absent":    `{"issues":[],"improvements":[]}`,
		"null revision": `{"issues":[],"improvements":[],"revised_worldview":null}`,
		"non-object":    `{"issues":[],"improvements":[],"revised_worldview":"better"}`,
		"array":         `{"issues":[],"improvements":[],"revised_worldview":[1]}`,
		"invalid json":  `not json at all`,
	}
	for name, review := range cases {
		t.Run(name, func(t *testing.T) {
			res, _ := runProtocol(t, json.RawMessage(review))
			tester.True(t, res.UsedDraft, name)
			tester.Eq(t, string(res.Final), draft)
			tester.Eq(t, string(res.Draft), draft)
		})
	}
}

func TestAcceptRevisionReturnsDraftIdentity(t *testing.T) {
	draft := json.RawMessage(`{ "a" : 1 }`) // spacing must survive untouched
	got, usedDraft := AcceptRevision(json.RawMessage(`{"issues":[]}`), "revised_x", draft)
	tester.True(t, usedDraft)
	tester.Eq(t, string(got), string(draft))
}

func TestParseReviewReportTolerant(t *testing.T) {
	report := parseReviewReport(json.RawMessage(`{"revised_x":{}}`))
	tester.Eq(t, len(report.Issues), 0)
	tester.Eq(t, len(report.Improvements), 0)
	tester.True(t, report.Issues != nil)
	tester.True(t, report.Improvements != nil)
}
