package types

// Goal tiers and link relations.
const (
	TierShort = "short"
	TierMid   = "mid"
	TierLong  = "long"

	RelationSupports        = "supports"
	RelationBlocks          = "blocks"
	RelationCompetes        = "competes"
	RelationDepends         = "depends"
	RelationEnables         = "enables"
	RelationMutualExclusion = "mutual_exclusion"
)

// ConflictNetwork is the goal/conflict graph produced by the conflict stage:
// per-actor goals connected by typed links, with tensions as human-readable
// clusters over the graph.
type ConflictNetwork struct {
	Actors           []Actor            `json:"actors"`
	Goals            []Goal             `json:"goals"`
	Links            []Link             `json:"links"`
	Tensions         []Tension          `json:"tensions"`
	Progression      []ProgressionPhase `json:"progression,omitempty"`
	ConsistencyRules []string           `json:"consistency_rules"`
}

// Actor is the conflict-network projection of a Character: a minimal index
// derived from the finalized character set at generation time.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Goal identity is immutable once assigned; goal_id is the join key for
// links.
type Goal struct {
	GoalID            string   `json:"goal_id"`
	OwnerID           string   `json:"owner_id"`
	Tier              string   `json:"tier"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Rationale         string   `json:"rationale,omitempty"`
	WorldRefs         []string `json:"world_refs,omitempty"`
	Constraints       []string `json:"constraints,omitempty"`
	SuccessConditions []string `json:"success_conditions,omitempty"`
	FailureRisks      []string `json:"failure_risks,omitempty"`
	Metrics           []string `json:"metrics,omitempty"`
	TimeHorizonHint   string   `json:"time_horizon_hint,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// Link is a directed edge between goals and the only carrier of inter-goal
// causal/tension structure.
type Link struct {
	SourceGoalID string  `json:"source_goal_id"`
	TargetGoalID string  `json:"target_goal_id"`
	Relation     string  `json:"relation"`
	Weight       float64 `json:"weight,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Tension names a cluster of goals whose interaction matters. It is derived
// commentary over the graph, not itself graph-enforced.
type Tension struct {
	Label               string   `json:"label"`
	InvolvedGoalIDs     []string `json:"involved_goal_ids"`
	WhyItMatters        string   `json:"why_it_matters"`
	EscalationPaths     []string `json:"escalation_paths,omitempty"`
	DeescalationOptions []string `json:"deescalation_options,omitempty"`
}

// ProgressionPhase sketches how the tension structure may evolve. Structural
// suggestions only, never scene-level plotting.
type ProgressionPhase struct {
	Phase        string   `json:"phase"`
	GoalShifts   []string `json:"goal_shifts,omitempty"`
	LinkShifts   []string `json:"link_shifts,omitempty"`
	RiskTriggers []string `json:"risk_triggers,omitempty"`
}

// ConflictRelations lists the link relations that count as opposition
// between primary actors.
func ConflictRelations() map[string]bool {
	return map[string]bool{
		RelationBlocks:          true,
		RelationCompetes:        true,
		RelationMutualExclusion: true,
	}
}
