package conflict

import "storyforge/internal/types"

// Cast-level codes. The character set and the network's actor index are
// checked with the same report shape as the graph so repair prompts read
// uniformly.
const (
	CodeDuplicateCharacterID      = "duplicate_character_id"
	CodeUnresolvedRelationshipRef = "unresolved_relationship_ref"
	CodeUnknownActor              = "unknown_actor"
	CodeMissingCastActor          = "missing_cast_actor"
)

// Merge appends the other report's violations.
func (r *Report) Merge(other *Report) {
	r.Violations = append(r.Violations, other.Violations...)
}

// ValidateCharacters checks the finalized character set: ids unique within
// the set, relationship targets resolving to a member. Targets may reference
// characters defined later, so the set is indexed in full before any target
// is resolved.
func ValidateCharacters(set types.CharacterSet) *Report {
	report := &Report{}

	ids := map[string]bool{}
	for _, c := range set.Characters {
		if ids[c.ID] {
			report.add(CodeDuplicateCharacterID, c.ID,
				"character id %q appears more than once", c.ID)
			continue
		}
		ids[c.ID] = true
	}

	for _, c := range set.Characters {
		for _, rel := range c.Relationships {
			if !ids[rel.TargetID] {
				report.add(CodeUnresolvedRelationshipRef, c.ID,
					"character %q relationship target %q does not resolve", c.ID, rel.TargetID)
			}
		}
	}
	return report
}

// SyncWithCast checks that the network's actor index mirrors the cast it was
// derived from: the same ids on both sides, no members dropped, none
// invented. Display names may drift; identity may not.
func SyncWithCast(net *types.ConflictNetwork, cast []types.Actor) *Report {
	report := &Report{}
	if net == nil {
		return report
	}

	inNet := map[string]bool{}
	for _, a := range net.Actors {
		inNet[a.ID] = true
	}
	inCast := map[string]bool{}
	for _, a := range cast {
		inCast[a.ID] = true
	}

	for _, a := range cast {
		if !inNet[a.ID] {
			report.add(CodeMissingCastActor, a.ID,
				"cast member %q (%s) is absent from the network's actor index", a.ID, a.DisplayName)
		}
	}
	for _, a := range net.Actors {
		if !inCast[a.ID] {
			report.add(CodeUnknownActor, a.ID,
				"network actor %q does not exist in the character set", a.ID)
		}
	}
	return report
}
