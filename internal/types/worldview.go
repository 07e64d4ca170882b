package types

// Worldview is the world-background rule set: the user's meta fields echoed
// back plus an open-ended expansion. It must describe only the world, never
// named protagonists, antagonists, or plot beats.
type Worldview struct {
	Meta
	Expansion        Expansion       `json:"expansion"`
	ConsistencyRules []string        `json:"consistency_rules"`
	Glossary         []GlossaryEntry `json:"glossary,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// Expansion holds the self-named dimensions of the setting. Facet order is
// preserved; it shapes downstream prompt assembly.
type Expansion struct {
	Facets []Facet `json:"facets"`
}

// Facet is one self-named dimension of the world (a law system, an energy
// economy, a calendar). Axioms carry the load-bearing rules; mechanics is an
// open, order-preserving map the model is free to shape.
type Facet struct {
	Name          string     `json:"name"`
	Overview      string     `json:"overview"`
	Axioms        []string   `json:"axioms"`
	Mechanics     OrderedMap `json:"mechanics,omitempty"`
	Limits        []string   `json:"limits,omitempty"`
	Risks         []string   `json:"risks,omitempty"`
	Metrics       []string   `json:"metrics,omitempty"`
	Implications  []string   `json:"implications,omitempty"`
	OpenQuestions []string   `json:"open_questions,omitempty"`
}

type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}
