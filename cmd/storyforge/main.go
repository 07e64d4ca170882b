// Command storyforge drives the narrative-design pipeline: worldview,
// characters, and conflict network at the task level, then per-chapter
// director decision, memory cards, and outline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "storyforge",
		Short:         "Staged narrative-design pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newChapterCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
