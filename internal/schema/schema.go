// Package schema declares the response schemas handed to the generation
// client's schema-constrained mode. They are a design-time contract: the
// service is responsible for conformance, callers do not re-validate.
package schema

import genai "google.golang.org/genai"

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func strEnum(values ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Enum: values}
}

func strArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: str()}
}

func strArrayMin(min int64) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: str(), MinItems: genai.Ptr(min)}
}

func array(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

func arrayMin(items *genai.Schema, min int64) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items, MinItems: genai.Ptr(min)}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// openObject admits model-shaped keys; used where the contract deliberately
// leaves room (facet mechanics, prior-update payloads).
func openObject() *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject}
}

// Review wraps an artifact schema into the shared review output shape:
// issues ordered by severity, actionable improvements, and the revised
// artifact under revisedKey.
func Review(revisedKey string, artifact *genai.Schema) *genai.Schema {
	return object(map[string]*genai.Schema{
		"issues": array(object(map[string]*genai.Schema{
			"severity":        strEnum("critical", "major", "minor"),
			"summary":         str(),
			"affected_fields": strArray(),
			"rationale":       str(),
		}, "severity", "summary")),
		"improvements": strArray(),
		revisedKey:     artifact,
	}, "issues", "improvements", revisedKey)
}

// Guidance constrains the worldview advisor's free-form output.
func Guidance() *genai.Schema {
	return object(map[string]*genai.Schema{
		"guidance": str(),
	}, "guidance")
}
