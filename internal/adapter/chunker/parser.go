package chunker

import (
	"strings"

	"tokentrim/internal/domain"
)

// LanguageParser produces structural chunks from a grammar-aware parse.
// An error makes the caller fall back to the heuristic chunker.
type LanguageParser interface {
	Parse(content string) ([]domain.CodeChunk, error)
	Language() string
}

// extractLines extracts lines from a slice (1-indexed, inclusive).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > len(lines) || startLine > endLine {
		return ""
	}

	selected := lines[startLine-1 : endLine]
	return strings.Join(selected, "\n")
}
