package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tokentrim/internal/domain"
	"tokentrim/internal/usecase"
)

var (
	compressAggressive bool
	compressLanguage   string
	compressLevel      string
	compressJSON       bool
	compressOutput     string
)

var compressCmd = &cobra.Command{
	Use:   "compress <file|dir|-> [...]",
	Short: "Run the full compression pipeline",
	Long: `Minify, chunk, summarise and hash-compress source files.

By default a summary of each report is printed. --level prints one view
of the code instead: minified, skeleton, architecture, compressed, best,
or preamble (the decode preamble followed by the compressed code).

Examples:
  tokentrim compress main.py
  tokentrim compress --level best --aggressive ./src
  cat app.js | tokentrim compress --language JavaScript --json -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)
	compressCmd.Flags().BoolVarP(&compressAggressive, "aggressive", "a", false, "collapse indentation and all blank lines")
	compressCmd.Flags().StringVarP(&compressLanguage, "language", "l", "", "language override (detected from the file name by default)")
	compressCmd.Flags().StringVar(&compressLevel, "level", "", "print one level: minified, skeleton, architecture, compressed, best, preamble")
	compressCmd.Flags().BoolVar(&compressJSON, "json", false, "print the full report as JSON")
	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "write output to a file")
}

func runCompress(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc := newServices(cfg, nil)

	files, err := loadSources(svc, args, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no text files found")
	}

	aggressive := compressAggressive || cfg.Minify.Aggressive
	reports := make([]*domain.CompressionReport, 0, len(files))
	bar := newProgressBar(len(files), "Compressing")
	for _, f := range files {
		language := f.Language
		if compressLanguage != "" {
			language = compressLanguage
		}
		reports = append(reports, svc.compress.Compress(cmd.Context(), usecase.CompressInput{
			Text:       f.Text,
			Filename:   f.Name,
			Language:   language,
			Aggressive: aggressive,
		}))
		_ = bar.Add(1)
	}

	var out strings.Builder
	switch {
	case compressJSON:
		var v any = reports
		if len(reports) == 1 {
			v = reports[0]
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		out.Write(data)
		out.WriteString("\n")

	case compressLevel != "":
		for i, r := range reports {
			content, err := levelContent(r, compressLevel)
			if err != nil {
				return err
			}
			if len(reports) > 1 {
				if i > 0 {
					out.WriteString("\n")
				}
				fmt.Fprintf(&out, "# === %s (%s) ===\n", r.Filename, compressLevel)
			}
			out.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				out.WriteString("\n")
			}
		}

	default:
		for _, r := range reports {
			out.WriteString(renderReport(r))
			out.WriteString("\n")
		}
	}

	return writeOutput(cmd.OutOrStdout(), compressOutput, []byte(out.String()))
}

// levelContent returns the text of one named level of r.
func levelContent(r *domain.CompressionReport, level string) (string, error) {
	switch level {
	case domain.LevelMinified:
		return r.SummaryLevels.Minified.Content, nil
	case domain.LevelSkeleton:
		return r.SummaryLevels.Skeleton.Content, nil
	case domain.LevelArchitecture:
		return r.SummaryLevels.Architecture.Content, nil
	case domain.LevelCompressed:
		return r.SummaryLevels.Compressed.Content, nil
	case "best":
		return levelContent(r, r.BestLevel)
	case "preamble":
		return r.DecodePreamble + r.SummaryLevels.Compressed.Content, nil
	default:
		return "", fmt.Errorf("unknown level %q", level)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
