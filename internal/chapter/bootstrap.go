package chapter

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"storyforge/internal/store"
	"storyforge/internal/types"
)

// Inputs are the upstream artifacts a chapter consumes, already unwrapped.
type Inputs struct {
	Meta       types.Meta
	Worldview  json.RawMessage
	Characters json.RawMessage
	Conflicts  json.RawMessage
}

// Bootstrap runs the three-step chapter chain and persists each artifact to
// the chapter's runtime directory before the next step starts.
type Bootstrap struct {
	Director DirectorStep
	Memory   MemoryCardStep
	Outline  OutlineStep
	Store    *store.TaskStore
}

func (b *Bootstrap) Run(ctx context.Context, chapterIndex int, in Inputs) (*types.ChapterIndex, error) {
	dir, err := b.Store.ChapterDir(chapterIndex)
	if err != nil {
		return nil, err
	}

	prevSummary := ""
	if chapterIndex > 1 {
		prevSummary, err = b.Store.ReadText(store.ChapterFile(chapterIndex-1, "summary.txt"))
		if err != nil {
			return nil, fmt.Errorf("chapter %d: read previous summary: %w", chapterIndex, err)
		}
	}

	decision, err := b.Director.Run(ctx, in, chapterIndex, prevSummary)
	if err != nil {
		return nil, err
	}
	if err := b.Store.WriteJSON(filepath.Join(dir, "director_decision.json"), decision); err != nil {
		return nil, err
	}

	priorUpdate, loadWarn := b.loadPriorUpdate()
	cards, err := b.Memory.Run(ctx, in, decision, priorUpdate, loadWarn)
	if err != nil {
		return nil, err
	}
	if err := b.Store.WriteJSON(filepath.Join(dir, "memory_cards.json"), cards); err != nil {
		return nil, err
	}

	outline, err := b.Outline.Run(ctx, in.Meta, decision, cards)
	if err != nil {
		return nil, err
	}
	if err := b.Store.WriteJSON(filepath.Join(dir, "chapter_outline.json"), outline); err != nil {
		return nil, err
	}

	index := &types.ChapterIndex{
		TaskName:     b.Store.Task(),
		ChapterIndex: chapterIndex,
		Artifacts: types.ChapterArtifacts{
			DirectorDecision: filepath.Join(dir, "director_decision.json"),
			MemoryCards:      filepath.Join(dir, "memory_cards.json"),
			ChapterOutline:   filepath.Join(dir, "chapter_outline.json"),
		},
	}
	if err := b.Store.WriteJSON(filepath.Join(dir, "index.json"), index); err != nil {
		return nil, err
	}
	return index, nil
}

// loadPriorUpdate reads the task-root carry-over file opportunistically: a
// missing file yields an empty object, a corrupt one yields a warning object.
// It never fails.
func (b *Bootstrap) loadPriorUpdate() (json.RawMessage, string) {
	if !b.Store.Exists(store.UpdateFile) {
		return json.RawMessage(`{}`), ""
	}
	raw, err := b.Store.ReadRaw(store.UpdateFile)
	if err != nil || !json.Valid(raw) {
		return json.RawMessage(`{"_warn":"failed_to_load_update_json"}`), UpdateLoadWarning
	}
	return raw, ""
}
