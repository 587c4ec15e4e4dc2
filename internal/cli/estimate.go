package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tokentrim/internal/domain"
)

var estimateFormat string

var estimateCmd = &cobra.Command{
	Use:   "estimate <file|dir|-> [...]",
	Short: "Estimate the token count of files",
	Long: `Report size, language and estimated token count per file.

Formats: text (default), json, markdown (rendered for the terminal).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringVarP(&estimateFormat, "format", "f", "text", "output format: text, json, markdown")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	svc := newServices(GetConfig(), nil)

	files, err := loadSources(svc, args, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	rows := make([]domain.FileAnalysis, 0, len(files))
	for _, f := range files {
		row := svc.analyze.AnalyzeFile(f.Name, []byte(f.Text))
		if f.Name == "stdin" {
			row.Language = f.Language
		}
		rows = append(rows, row)
	}

	w := cmd.OutOrStdout()
	switch estimateFormat {
	case "json":
		return writeJSON(w, rows)
	case "markdown", "md":
		_, err := fmt.Fprint(w, renderMarkdown(estimateMarkdown(rows), 100))
		return err
	case "text", "":
		_, err := fmt.Fprint(w, estimateText(rows))
		return err
	default:
		return fmt.Errorf("unknown format %q", estimateFormat)
	}
}

func estimateText(rows []domain.FileAnalysis) string {
	var b strings.Builder
	total := 0
	for _, r := range rows {
		fmt.Fprintf(&b, "%8d  %-12s %s\n", r.TokenEstimate, r.Language, r.FileName)
		total += r.TokenEstimate
	}
	if len(rows) > 1 {
		fmt.Fprintf(&b, "%8d  total\n", total)
	}
	return b.String()
}
