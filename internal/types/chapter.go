package types

// DirectorDecision is a chapter-level parameter set, not generative content.
// Downstream steps treat it as configuration.
type DirectorDecision struct {
	WritingStyle  string   `json:"writing_style"`
	Focalization  string   `json:"focalization"`
	ToneCurve     string   `json:"tone_curve"`
	InfoBudget    int      `json:"info_budget"`
	ConflictFocus string   `json:"conflict_focus"`
	Notes         []string `json:"notes,omitempty"`
}

// MemoryCards is the chapter-scoped subset of world/character/conflict facts
// a single chapter's writer must hold in mind. PriorUpdates carries forward
// the previous chapter's recorded delta when one exists.
type MemoryCards struct {
	MustHaveFacts []string `json:"must_have_facts"`
	VolatileRisks []string `json:"volatile_risks"`
	DictionGuides []string `json:"diction_guides,omitempty"`
	PriorUpdates  []string `json:"prior_updates,omitempty"`
}

// ChapterOutline plans one chapter as 4-8 sections of roughly 2000 words.
type ChapterOutline struct {
	ChapterGoal string    `json:"chapter_goal"`
	Sections    []Section `json:"sections"`
	Notes       []string  `json:"notes,omitempty"`
}

type Section struct {
	ID              string   `json:"id"`
	TargetWords     int      `json:"target_words"`
	SectionGoal     string   `json:"section_goal"`
	ConflictHook    string   `json:"conflict_hook"`
	POV             string   `json:"pov"`
	ForeshadowSlots []string `json:"foreshadow_slots,omitempty"`
	NoiseBudget     string   `json:"noise_budget,omitempty"`
}

// ChapterIndex records where a chapter's three planning artifacts were
// persisted.
type ChapterIndex struct {
	TaskName     string           `json:"task_name"`
	ChapterIndex int              `json:"chapter_index"`
	Artifacts    ChapterArtifacts `json:"artifacts"`
}

type ChapterArtifacts struct {
	DirectorDecision string `json:"director_decision"`
	MemoryCards      string `json:"memory_cards"`
	ChapterOutline   string `json:"chapter_outline"`
}
