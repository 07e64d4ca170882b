package types

// Role classifies a character's narrative importance.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// CharacterSet is the full cast produced by the character stage. It is
// reviewed and revised as a whole set, never per character.
type CharacterSet struct {
	Counts     CharacterCounts `json:"counts"`
	Characters []Character     `json:"characters"`
}

type CharacterCounts struct {
	Primary   int `json:"primary"`
	Secondary int `json:"secondary"`
}

// Character ids must be unique within the set. Relationship targets may
// reference characters defined later in the set; they must resolve once the
// set is finalized.
type Character struct {
	ID                  string         `json:"id"`
	Role                string         `json:"role"`
	DisplayName         string         `json:"display_name"`
	Tags                []string       `json:"tags,omitempty"`
	Background          Background     `json:"background"`
	Memories            []Memory       `json:"memories"`
	Timeline            []TimelineItem `json:"timeline"`
	Relationships       []Relationship `json:"relationships,omitempty"`
	Goals               CharacterGoals `json:"goals,omitempty"`
	SecretsAndHooks     []string       `json:"secrets_and_hooks,omitempty"`
	UnresolvedQuestions []string       `json:"unresolved_questions,omitempty"`
	POVVoiceHint        string         `json:"pov_voice_hint,omitempty"`
	ReliabilityNotes    string         `json:"reliability_notes,omitempty"`
}

type Background struct {
	Story              string   `json:"story"`
	CultureNotes       string   `json:"culture_language_notes,omitempty"`
	WorldviewAlignment []string `json:"worldview_alignment,omitempty"`
}

// Memory types and reliability grades.
const (
	MemoryEpisodic   = "episodic"
	MemorySemantic   = "semantic"
	MemoryProcedural = "procedural"
	MemoryFlashbulb  = "flashbulb"
	MemoryDreamlike  = "dreamlike"

	ReliabilityCertain   = "certain"
	ReliabilityUncertain = "uncertain"
	ReliabilityContested = "contested"
)

type Memory struct {
	Type        string  `json:"type"`
	Content     string  `json:"content"`
	Trigger     string  `json:"trigger,omitempty"`
	Salience    float64 `json:"salience,omitempty"`
	Reliability string  `json:"reliability,omitempty"`
	TimeHint    string  `json:"time_hint,omitempty"`
}

type TimelineItem struct {
	When      string   `json:"when"`
	Event     string   `json:"event"`
	FacetRefs []string `json:"facet_refs,omitempty"`
	Certainty string   `json:"certainty,omitempty"`
}

type Relationship struct {
	TargetID         string `json:"target_id"`
	Relation         string `json:"relation,omitempty"`
	EvidenceOrMemory string `json:"evidence_or_memory,omitempty"`
}

type CharacterGoals struct {
	ShortTerm []string `json:"short_term,omitempty"`
	MidTerm   []string `json:"mid_term,omitempty"`
	LongTerm  []string `json:"long_term,omitempty"`
}
