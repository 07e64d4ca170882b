// Package conflict mechanically checks the structural invariants of a
// goal/conflict network. The generation and review prompts assert the same
// rules declaratively; this validator is the enforcement of record and can
// reject a finalized network or request one regeneration pass.
package conflict

import (
	"fmt"
	"sort"

	"storyforge/internal/types"
)

const (
	CodeIsolatedGoal           = "isolated_goal"
	CodeMissingPrimaryConflict = "missing_primary_conflict"
	CodeUnresolvedGoalRef      = "unresolved_goal_ref"
	CodeUnresolvedOwnerRef     = "unresolved_owner_ref"
	CodeDuplicateGoalID        = "duplicate_goal_id"
	CodeDuplicateActorID       = "duplicate_actor_id"
	CodeActorWithoutGoal       = "actor_without_goal"
)

// Violation is one failed invariant check.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
}

// Report collects every violation found in a network.
type Report struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether the network satisfied all invariants.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

func (r *Report) add(code, subject, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
	})
}

// Summary renders the violations as one line per finding, suitable for
// embedding in a repair prompt or an error message.
func (r *Report) Summary() string {
	out := ""
	for _, v := range r.Violations {
		out += fmt.Sprintf("- [%s] %s\n", v.Code, v.Message)
	}
	return out
}

// Validate runs every structural check over the network. It works in two
// phases: index all entities first, then resolve and check edges, so forward
// references inside the artifact are handled uniformly.
func Validate(net *types.ConflictNetwork) *Report {
	report := &Report{}
	if net == nil {
		report.add(CodeUnresolvedGoalRef, "", "network is empty")
		return report
	}

	// Phase 1: index actors and goals.
	actors := map[string]types.Actor{}
	for _, a := range net.Actors {
		if _, dup := actors[a.ID]; dup {
			report.add(CodeDuplicateActorID, a.ID, "actor id %q appears more than once", a.ID)
			continue
		}
		actors[a.ID] = a
	}
	goals := map[string]types.Goal{}
	goalsByOwner := map[string][]string{}
	for _, g := range net.Goals {
		if _, dup := goals[g.GoalID]; dup {
			report.add(CodeDuplicateGoalID, g.GoalID, "goal id %q appears more than once", g.GoalID)
			continue
		}
		goals[g.GoalID] = g
		goalsByOwner[g.OwnerID] = append(goalsByOwner[g.OwnerID], g.GoalID)
	}

	// Phase 2: resolve references.
	for _, g := range net.Goals {
		if _, ok := actors[g.OwnerID]; !ok {
			report.add(CodeUnresolvedOwnerRef, g.GoalID,
				"goal %q owner %q does not resolve to an actor", g.GoalID, g.OwnerID)
		}
	}
	linked := map[string]bool{}
	for i, l := range net.Links {
		if _, ok := goals[l.SourceGoalID]; !ok {
			report.add(CodeUnresolvedGoalRef, l.SourceGoalID,
				"link %d source %q does not resolve to a goal", i, l.SourceGoalID)
		} else {
			linked[l.SourceGoalID] = true
		}
		if _, ok := goals[l.TargetGoalID]; !ok {
			report.add(CodeUnresolvedGoalRef, l.TargetGoalID,
				"link %d target %q does not resolve to a goal", i, l.TargetGoalID)
		} else {
			linked[l.TargetGoalID] = true
		}
	}

	// Goal coverage: every goal appears in at least one link.
	for _, g := range net.Goals {
		if !linked[g.GoalID] {
			report.add(CodeIsolatedGoal, g.GoalID,
				"goal %q (%s) is not source or target of any link", g.GoalID, g.Title)
		}
	}

	// Per-actor coverage: an actor with zero goals is disallowed.
	for _, a := range net.Actors {
		if len(goalsByOwner[a.ID]) == 0 {
			report.add(CodeActorWithoutGoal, a.ID,
				"actor %q (%s) owns no goals", a.ID, a.DisplayName)
		}
	}

	// Pairwise primary conflict: every unordered pair of primary actors must
	// share at least one opposition link between their goals, in either
	// direction.
	checkPrimaryPairs(net, goals, report)

	return report
}

func checkPrimaryPairs(net *types.ConflictNetwork, goals map[string]types.Goal, report *Report) {
	var primaries []string
	for _, a := range net.Actors {
		if a.Role == types.RolePrimary {
			primaries = append(primaries, a.ID)
		}
	}
	sort.Strings(primaries)
	if len(primaries) < 2 {
		return
	}

	opposition := types.ConflictRelations()
	opposed := map[[2]string]bool{}
	for _, l := range net.Links {
		if !opposition[l.Relation] {
			continue
		}
		src, okS := goals[l.SourceGoalID]
		dst, okT := goals[l.TargetGoalID]
		if !okS || !okT || src.OwnerID == dst.OwnerID {
			continue
		}
		opposed[pairKey(src.OwnerID, dst.OwnerID)] = true
	}

	for i := 0; i < len(primaries); i++ {
		for j := i + 1; j < len(primaries); j++ {
			a, b := primaries[i], primaries[j]
			if !opposed[pairKey(a, b)] {
				report.add(CodeMissingPrimaryConflict, a+"/"+b,
					"no blocks/competes/mutual_exclusion link between goals of primary actors %q and %q", a, b)
			}
		}
	}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
