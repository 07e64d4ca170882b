package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

// ErrInvalidJSON reports a structurally unusable model response.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Request describes one generation call. When Schema is set the service runs
// in schema-constrained mode and the result conforms to it; the caller does
// not re-validate. Without a schema the result is the raw text, re-encoded as
// a JSON string so that every call yields a json.RawMessage.
type Request struct {
	Model       string
	System      string
	User        string
	Schema      *genai.Schema
	SchemaName  string
	Temperature float32
}

// Client is the capability boundary to the structured-generation service.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
	Close() error
}

// ServiceError wraps a transport or service failure. Callers let it
// propagate; the pipeline performs no automatic retry.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

type ctxKeyStage struct{}

// WithStage tags the context with the pipeline stage issuing a call. The tag
// is used for audit correlation and by the fake client.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage tag stored in the context.
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
