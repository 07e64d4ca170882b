// Package types defines the artifact data model shared by every pipeline
// stage. JSON field names match the artifacts as persisted on disk.
package types

// Meta is the user-authored story configuration. It is written once per task
// and treated as read-only by every downstream stage.
type Meta struct {
	GenreTone             string      `json:"genre_tone" yaml:"genre_tone"`
	AudienceRating        string      `json:"audience_rating" yaml:"audience_rating"`
	Inspirations          []string    `json:"inspirations,omitempty" yaml:"inspirations,omitempty"`
	Themes                []string    `json:"themes,omitempty" yaml:"themes,omitempty"`
	Medium                string      `json:"medium" yaml:"medium"`
	EraPowerLevel         string      `json:"era_power_level" yaml:"era_power_level"`
	Language              string      `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageCultureFlavor []string    `json:"language_culture_flavor,omitempty" yaml:"language_culture_flavor,omitempty"`
	Constraints           Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Constraints split into hard rules the generators must never break and soft
// preferences they should lean toward.
type Constraints struct {
	Hard []string `json:"hard,omitempty" yaml:"hard,omitempty"`
	Soft []string `json:"soft,omitempty" yaml:"soft,omitempty"`
}
