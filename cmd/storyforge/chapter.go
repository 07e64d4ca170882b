package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"storyforge/internal/chapter"
	"storyforge/internal/config"
	"storyforge/internal/store"
)

func newChapterCmd() *cobra.Command {
	var (
		index int
		fake  bool
	)

	cmd := &cobra.Command{
		Use:   "chapter <task>",
		Short: "Bootstrap one chapter from existing task artifacts",
		Long: `Chapter runs the director/memory-cards/outline chain for a single
chapter. The task-level artifacts (worldview, characters, conflicts) must
already exist; run "storyforge run" first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.OutputRoot, args[0])
			if err != nil {
				return err
			}

			in, err := loadInputs(st)
			if err != nil {
				return err
			}

			client, err := buildClient(cmd.Context(), cfg, fake)
			if err != nil {
				return err
			}
			defer client.Close()

			boot := &chapter.Bootstrap{
				Director: chapter.DirectorStep{Client: client, Model: cfg.StrongModel},
				Memory:   chapter.MemoryCardStep{Client: client, Model: cfg.WeakModel},
				Outline:  chapter.OutlineStep{Client: client, Model: cfg.StrongModel},
				Store:    st,
			}
			stepColor.Fprintf(cmd.OutOrStdout(), "==> chapter %d of %q\n", index, args[0])
			idx, err := boot.Run(cmd.Context(), index, in)
			if err != nil {
				return err
			}
			doneColor.Fprintf(cmd.OutOrStdout(), "chapter artifacts: %s\n", idx.Artifacts.ChapterOutline)
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", 1, "chapter index (1-based)")
	cmd.Flags().BoolVar(&fake, "fake", false, "use the offline fake client instead of Gemini")
	return cmd
}

// loadInputs reads and unwraps the task-level artifacts a chapter depends on.
func loadInputs(st *store.TaskStore) (chapter.Inputs, error) {
	var in chapter.Inputs

	if err := st.ReadInto(store.MetaFile, &in.Meta); err != nil {
		return in, fmt.Errorf("load meta: %w", err)
	}
	for _, dep := range []struct {
		file string
		kind string
		dst  *json.RawMessage
	}{
		{store.WorldviewFile, "worldview", &in.Worldview},
		{store.CharactersFile, "characters", &in.Characters},
		{store.ConflictsFile, "conflicts", &in.Conflicts},
	} {
		if !st.Exists(dep.file) {
			return in, fmt.Errorf("missing %s; run the task pipeline first", dep.file)
		}
		raw, err := st.ReadRaw(dep.file)
		if err != nil {
			return in, err
		}
		*dep.dst = store.Unwrap(raw, dep.kind)
	}
	return in, nil
}
