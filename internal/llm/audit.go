package llm

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

// auditEntry mirrors one request/response pair to the audit log.
type auditEntry struct {
	Timestamp string        `json:"timestamp"`
	Stage     string        `json:"stage"`
	Request   auditRequest  `json:"request"`
	Response  auditResponse `json:"response"`
}

type auditRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	SchemaName  string  `json:"json_schema_name,omitempty"`
	System      string  `json:"system_prompt,omitempty"`
	User        string  `json:"user_prompt,omitempty"`
}

type auditResponse struct {
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WithAudit wraps a client so that every call is mirrored to one JSON file
// per request under dir, named by a second-granularity timestamp. Collisions
// within the same second overwrite (last write wins). Audit failures are
// logged and never affect the call result.
func WithAudit(next Client, dir string) Client {
	return &auditor{next: next, dir: dir, now: time.Now}
}

type auditor struct {
	next Client
	dir  string
	now  func() time.Time
}

func (a *auditor) Name() string { return a.next.Name() }
func (a *auditor) Close() error { return a.next.Close() }

func (a *auditor) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	raw, err := a.next.Generate(ctx, req)
	a.record(ctx, req, raw, err)
	return raw, err
}

func (a *auditor) record(ctx context.Context, req Request, raw json.RawMessage, callErr error) {
	ts := a.now().Format("20060102150405")
	entry := auditEntry{
		Timestamp: ts,
		Stage:     StageFrom(ctx),
		Request: auditRequest{
			Model:       req.Model,
			Temperature: req.Temperature,
			SchemaName:  req.SchemaName,
			System:      req.System,
			User:        req.User,
		},
	}
	if callErr != nil {
		entry.Response.Error = callErr.Error()
	} else {
		entry.Response.Output = raw
	}

	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		log.Printf("audit: marshal failed: %v", err)
		return
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		log.Printf("audit: mkdir failed: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(a.dir, ts+".json"), b, 0o644); err != nil {
		log.Printf("audit: write failed: %v", err)
	}
}
