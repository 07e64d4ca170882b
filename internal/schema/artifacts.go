package schema

import genai "google.golang.org/genai"

// Worldview constrains the world-background rule set. Facets are open-ended
// and self-named; mechanics is left free for the model to shape.
func Worldview() *genai.Schema {
	facet := object(map[string]*genai.Schema{
		"name":           str(),
		"overview":       str(),
		"axioms":         strArrayMin(2),
		"mechanics":      openObject(),
		"limits":         strArray(),
		"risks":          strArray(),
		"metrics":        strArray(),
		"implications":   strArray(),
		"open_questions": strArray(),
	}, "name", "overview", "axioms")

	return object(map[string]*genai.Schema{
		"genre_tone":              str(),
		"audience_rating":         str(),
		"inspirations":            strArray(),
		"themes":                  strArray(),
		"medium":                  str(),
		"era_power_level":         str(),
		"language":                str(),
		"language_culture_flavor": strArray(),
		"constraints": object(map[string]*genai.Schema{
			"hard": strArray(),
			"soft": strArray(),
		}),
		"expansion": object(map[string]*genai.Schema{
			"facets": arrayMin(facet, 6),
		}, "facets"),
		"consistency_rules": strArrayMin(3),
		"glossary": array(object(map[string]*genai.Schema{
			"term":       str(),
			"definition": str(),
		}, "term", "definition")),
		"warnings": strArray(),
	}, "genre_tone", "audience_rating", "medium", "era_power_level", "expansion", "consistency_rules")
}

// CharacterSet constrains the cast: required skeleton only, with room for
// the model to extend.
func CharacterSet() *genai.Schema {
	memory := object(map[string]*genai.Schema{
		"type":        strEnum("episodic", "semantic", "procedural", "flashbulb", "dreamlike"),
		"content":     str(),
		"trigger":     str(),
		"salience":    {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
		"reliability": strEnum("certain", "uncertain", "contested"),
		"time_hint":   str(),
	}, "type", "content")

	timelineItem := object(map[string]*genai.Schema{
		"when":       str(),
		"event":      str(),
		"facet_refs": strArray(),
		"certainty":  strEnum("high", "medium", "low"),
	}, "when", "event")

	relationship := object(map[string]*genai.Schema{
		"target_id":          str(),
		"relation":           str(),
		"evidence_or_memory": str(),
	}, "target_id")

	character := object(map[string]*genai.Schema{
		"id":           str(),
		"role":         strEnum("primary", "secondary"),
		"display_name": str(),
		"tags":         strArray(),
		"background": object(map[string]*genai.Schema{
			"story":                  str(),
			"culture_language_notes": str(),
			"worldview_alignment":    strArray(),
		}, "story"),
		"memories":      arrayMin(memory, 3),
		"timeline":      arrayMin(timelineItem, 3),
		"relationships": array(relationship),
		"goals": object(map[string]*genai.Schema{
			"short_term": strArray(),
			"mid_term":   strArray(),
			"long_term":  strArray(),
		}),
		"secrets_and_hooks":    strArray(),
		"unresolved_questions": strArray(),
		"pov_voice_hint":       str(),
		"reliability_notes":    str(),
	}, "id", "role", "display_name", "background", "memories", "timeline")

	return object(map[string]*genai.Schema{
		"counts": object(map[string]*genai.Schema{
			"primary":   {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0)},
			"secondary": {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0)},
		}, "primary", "secondary"),
		"characters": arrayMin(character, 1),
	}, "counts", "characters")
}

// ConflictNetwork constrains the goal/conflict graph skeleton. Connectivity
// and pairwise-conflict rules are asserted in prompts and checked
// mechanically after finalization.
func ConflictNetwork() *genai.Schema {
	actor := object(map[string]*genai.Schema{
		"id":           str(),
		"display_name": str(),
		"role":         str(),
	}, "id", "display_name", "role")

	goal := object(map[string]*genai.Schema{
		"goal_id":            str(),
		"owner_id":           str(),
		"tier":               strEnum("short", "mid", "long"),
		"title":              str(),
		"description":        str(),
		"rationale":          str(),
		"world_refs":         strArray(),
		"constraints":        strArray(),
		"success_conditions": strArray(),
		"failure_risks":      strArray(),
		"metrics":            strArray(),
		"time_horizon_hint":  str(),
		"notes":              str(),
	}, "goal_id", "owner_id", "tier", "title", "description")

	link := object(map[string]*genai.Schema{
		"source_goal_id": str(),
		"target_goal_id": str(),
		"relation": strEnum("supports", "blocks", "competes",
			"depends", "enables", "mutual_exclusion"),
		"weight": {Type: genai.TypeNumber},
		"notes":  str(),
	}, "source_goal_id", "target_goal_id", "relation")

	tension := object(map[string]*genai.Schema{
		"label":                str(),
		"involved_goal_ids":    strArray(),
		"why_it_matters":       str(),
		"escalation_paths":     strArray(),
		"deescalation_options": strArray(),
	}, "label", "involved_goal_ids", "why_it_matters")

	phase := object(map[string]*genai.Schema{
		"phase":         str(),
		"goal_shifts":   strArray(),
		"link_shifts":   strArray(),
		"risk_triggers": strArray(),
	}, "phase")

	return object(map[string]*genai.Schema{
		"actors":            arrayMin(actor, 1),
		"goals":             arrayMin(goal, 4),
		"links":             arrayMin(link, 3),
		"tensions":          array(tension),
		"progression":       array(phase),
		"consistency_rules": strArrayMin(5),
	}, "actors", "goals", "links", "tensions", "consistency_rules")
}

// DirectorDecision constrains the chapter director's parameter set.
func DirectorDecision() *genai.Schema {
	return object(map[string]*genai.Schema{
		"writing_style":  str(),
		"focalization":   str(),
		"tone_curve":     str(),
		"info_budget":    {Type: genai.TypeInteger, Minimum: genai.Ptr(1.0)},
		"conflict_focus": str(),
		"notes":          strArray(),
	}, "writing_style", "focalization", "tone_curve", "info_budget", "conflict_focus")
}

// MemoryCards constrains the chapter-scoped fact cards.
func MemoryCards() *genai.Schema {
	return object(map[string]*genai.Schema{
		"must_have_facts": strArray(),
		"volatile_risks":  strArray(),
		"diction_guides":  strArray(),
		"prior_updates":   strArray(),
	}, "must_have_facts", "volatile_risks")
}

// ChapterOutline constrains the per-chapter section plan.
func ChapterOutline() *genai.Schema {
	section := object(map[string]*genai.Schema{
		"id":               str(),
		"target_words":     {Type: genai.TypeInteger},
		"section_goal":     str(),
		"conflict_hook":    str(),
		"pov":              str(),
		"foreshadow_slots": strArray(),
		"noise_budget":     str(),
	}, "id", "target_words", "section_goal", "conflict_hook", "pov")

	return object(map[string]*genai.Schema{
		"chapter_goal": str(),
		"sections": &genai.Schema{
			Type:     genai.TypeArray,
			Items:    section,
			MinItems: genai.Ptr[int64](4),
			MaxItems: genai.Ptr[int64](8),
		},
		"notes": strArray(),
	}, "chapter_goal", "sections")
}
