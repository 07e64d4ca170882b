package pipeline

import (
	"encoding/json"

	"storyforge/internal/conflict"
	"storyforge/internal/types"
)

// Stage outputs are persisted wrapped: the final artifact lives under
// "final_<kind>" next to the draft and the review report. Consumers accept
// both the wrapped and the raw shape (store.Unwrap).

type WorldviewArtifact struct {
	Seed         int64              `json:"seed"`
	Advice       string             `json:"advice,omitempty"`
	Draft        json.RawMessage    `json:"draft_worldview"`
	ReviewReport types.ReviewReport `json:"review_report"`
	Final        json.RawMessage    `json:"final_worldview"`
}

type CharactersArtifact struct {
	Seed            int64                 `json:"seed"`
	CountsRequested types.CharacterCounts `json:"counts_requested"`
	Draft           json.RawMessage       `json:"draft_characters"`
	ReviewReport    types.ReviewReport    `json:"review_report"`
	Validation      *conflict.Report      `json:"validation,omitempty"`
	Final           json.RawMessage       `json:"final_characters"`
}

type ConflictsArtifact struct {
	Seed         int64              `json:"seed"`
	Draft        json.RawMessage    `json:"draft_conflicts"`
	ReviewReport types.ReviewReport `json:"review_report"`
	Validation   *conflict.Report   `json:"validation,omitempty"`
	Final        json.RawMessage    `json:"final_conflicts"`
}
