package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"LinkedLens/internal/app"
	"LinkedLens/internal/domain"
	"LinkedLens/internal/usecase"
)

var analyzeOut string

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "write the annotated page to this file")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [page.html]",
	Short: "Classify the posts of a page once and print the results.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if len(args) == 1 {
			cfg.Page.Path = args[0]
		}

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		outcome, snap := application.AnalyzeOnce(cmd.Context())
		if outcome == usecase.OutcomeFailed && snap.LastError != nil {
			return fmt.Errorf("analysis failed: %s", *snap.LastError)
		}

		renderPosts(cmd.OutOrStdout(), snap)

		if analyzeOut != "" {
			out, err := application.Page().HTML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(analyzeOut, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", analyzeOut, err)
			}
		}
		return nil
	},
}

func renderPosts(w io.Writer, snap usecase.Snapshot) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	t.AppendHeader(table.Row{"ID", "Author", "Classification", "Text"})
	for _, p := range snap.Posts {
		t.AppendRow(table.Row{p.ID, p.Author, classificationLabel(p.Classification), usecase.Excerpt(p.Text)})
	}
	t.AppendFooter(table.Row{"", "Total", snap.Stats.Total, fmt.Sprintf("bait %d / genuine %d", snap.Stats.Bait, snap.Stats.Genuine)})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
	t.Render()
}

func classificationLabel(c domain.Classification) string {
	switch c {
	case domain.ClassificationEngagementBait:
		return "engagement bait"
	case domain.ClassificationGenuineValue:
		return "genuine value"
	default:
		return "-"
	}
}
