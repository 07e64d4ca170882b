package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storyforge/internal/chapter"
	"storyforge/internal/config"
	"storyforge/internal/llm"
	"storyforge/internal/orchestrator"
	"storyforge/internal/store"
	"storyforge/internal/types"
)

var (
	stepColor = color.New(color.FgCyan, color.Bold)
	doneColor = color.New(color.FgGreen)
)

func newRunCmd() *cobra.Command {
	var (
		metaPath     string
		seed         int64
		fake         bool
		chapters     int
		numPrimary   int
		numSecondary int
	)

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run the task-level pipeline (worldview, characters, conflicts)",
		Long: `Run executes the three task-level stages in order, persisting each
artifact under <output>/<task>/. Stages whose artifact already exists are
skipped, so re-running a task resumes where the last run stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			task := args[0]

			st, err := store.Open(cfg.OutputRoot, task)
			if err != nil {
				return err
			}

			meta, err := resolveMeta(st, metaPath)
			if err != nil {
				return err
			}

			client, err := buildClient(cmd.Context(), cfg, fake)
			if err != nil {
				return err
			}
			defer client.Close()

			orc := &orchestrator.Orchestrator{
				Client:       client,
				Store:        st,
				StrongModel:  cfg.StrongModel,
				WeakModel:    cfg.WeakModel,
				Seed:         seed,
				NumPrimary:   numPrimary,
				NumSecondary: numSecondary,
			}

			stepColor.Fprintf(cmd.OutOrStdout(), "==> task %q (seed %d, client %s)\n", task, seed, client.Name())
			result, err := orc.Run(cmd.Context(), meta)
			if err != nil {
				return err
			}
			doneColor.Fprintf(cmd.OutOrStdout(), "task artifacts ready under %s\n", st.Dir())

			for i := 1; i <= chapters; i++ {
				stepColor.Fprintf(cmd.OutOrStdout(), "==> chapter %d\n", i)
				if _, err := runChapter(cmd.Context(), client, st, cfg, i, meta, result); err != nil {
					return err
				}
				doneColor.Fprintf(cmd.OutOrStdout(), "chapter %d artifacts ready\n", i)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metaPath, "meta", "", "meta file (JSON or YAML); required on first run of a task")
	cmd.Flags().Int64Var(&seed, "seed", 0, "run-level seed for prompt-variation ordering")
	cmd.Flags().BoolVar(&fake, "fake", false, "use the offline fake client instead of Gemini")
	cmd.Flags().IntVar(&chapters, "chapters", 0, "also bootstrap chapters 1..N after the task stages")
	cmd.Flags().IntVar(&numPrimary, "primary", 0, "primary character count (0 = default)")
	cmd.Flags().IntVar(&numSecondary, "secondary", 0, "secondary character count (0 = default)")
	return cmd
}

// buildClient assembles the client stack: Gemini (or the offline fake)
// wrapped with the per-request audit log.
func buildClient(ctx context.Context, cfg *config.Config, fake bool) (llm.Client, error) {
	if fake {
		return llm.WithAudit(llm.NewFakeClient(), cfg.AuditDir), nil
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	cli, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.StrongModel, cfg.RPS, cfg.Burst)
	if err != nil {
		return nil, err
	}
	return llm.WithAudit(cli, cfg.AuditDir), nil
}

// resolveMeta loads the binding meta: from the persisted meta.json when the
// task already has one, otherwise from --meta (JSON or YAML by extension).
func resolveMeta(st *store.TaskStore, metaPath string) (types.Meta, error) {
	var meta types.Meta
	if st.Exists(store.MetaFile) {
		if err := st.ReadInto(store.MetaFile, &meta); err != nil {
			return meta, err
		}
		return meta, nil
	}
	if metaPath == "" {
		return meta, fmt.Errorf("task has no meta.json yet; pass --meta")
	}
	b, err := os.ReadFile(metaPath)
	if err != nil {
		return meta, err
	}
	switch strings.ToLower(filepath.Ext(metaPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &meta)
	default:
		err = json.Unmarshal(b, &meta)
	}
	if err != nil {
		return meta, fmt.Errorf("parse %s: %w", metaPath, err)
	}
	return meta, nil
}

func runChapter(ctx context.Context, client llm.Client, st *store.TaskStore,
	cfg *config.Config, index int, meta types.Meta, result *orchestrator.Result) (*types.ChapterIndex, error) {

	charsRaw, err := json.Marshal(result.Characters)
	if err != nil {
		return nil, err
	}
	boot := &chapter.Bootstrap{
		Director: chapter.DirectorStep{Client: client, Model: cfg.StrongModel},
		Memory:   chapter.MemoryCardStep{Client: client, Model: cfg.WeakModel},
		Outline:  chapter.OutlineStep{Client: client, Model: cfg.StrongModel},
		Store:    st,
	}
	return boot.Run(ctx, index, chapter.Inputs{
		Meta:       meta,
		Worldview:  result.Worldview,
		Characters: charsRaw,
		Conflicts:  result.Conflicts,
	})
}
