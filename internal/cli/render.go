package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"tokentrim/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16)

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// renderReport draws the headline numbers of a compression run.
func renderReport(r *domain.CompressionReport) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}
	rows := []string{
		titleStyle.Render(r.Filename),
		row("language", r.Language),
		row("lines", fmt.Sprint(r.OriginalLines)),
		row("tokens", fmt.Sprintf("%d → %d", r.OriginalTokens, r.BestTokens)),
		row("best level", r.BestLevel),
		row("reduction", goodStyle.Render(fmt.Sprintf("%.2f%%", r.OverallReductionPct))),
		row("minified", fmt.Sprintf("%d tokens, %d comments, %d blank lines removed",
			r.MinifiedTokens, r.Minification.CommentsRemoved, r.Minification.BlankLinesRemoved)),
		row("skeleton", fmt.Sprintf("%d tokens", r.SummaryLevels.Skeleton.Tokens)),
		row("architecture", fmt.Sprintf("%d tokens", r.SummaryLevels.Architecture.Tokens)),
		row("compressed", fmt.Sprintf("%d tokens, %d hash refs", r.SummaryLevels.Compressed.Tokens, r.HashTable.EntriesCount)),
		row("huffman", fmt.Sprintf("%.2fx (%d bits)", r.Huffman.CompressionRatio, r.Huffman.CompressedSizeBits)),
		row("chunks", fmt.Sprint(r.TotalChunks)),
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// estimateMarkdown renders file analyses as a markdown table.
func estimateMarkdown(rows []domain.FileAnalysis) string {
	var b strings.Builder
	b.WriteString("| File | Language | Bytes | Tokens |\n|---|---|---:|---:|\n")
	totalBytes, totalTokens := 0, 0
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %d | %d |\n", escapeCell(r.FileName), r.Language, r.FileSize, r.TokenEstimate)
		totalBytes += r.FileSize
		totalTokens += r.TokenEstimate
	}
	fmt.Fprintf(&b, "| **total** | | %d | %d |\n", totalBytes, totalTokens)
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// renderMarkdown styles markdown for the terminal, falling back to the
// source when rendering fails.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
