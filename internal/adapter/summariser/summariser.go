// Package summariser derives skeleton, architecture and hash-compressed
// views of a source file.
package summariser

import (
	"sort"
	"strings"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

const (
	// MinPatternLength is the shortest stripped line worth a hash reference.
	MinPatternLength = 30
	// MinPatternCount is how often a line must repeat to be hashed.
	MinPatternCount = 2

	// CrossReferenceWarnChunks marks files whose quadratic cross-reference
	// pass is a scaling risk.
	CrossReferenceWarnChunks = 500
)

type Summariser struct {
	minifier  port.Minifier
	chunker   port.Chunker
	estimator port.TokenEstimator
}

func NewSummariser(minifier port.Minifier, chunker port.Chunker, estimator port.TokenEstimator) *Summariser {
	if estimator == nil {
		estimator = analyzer.NewEstimator()
	}
	return &Summariser{
		minifier:  minifier,
		chunker:   chunker,
		estimator: estimator,
	}
}

// Summarise builds all three views. When chunks is nil the text is chunked
// here.
func (s *Summariser) Summarise(text, language, filename string, chunks []domain.CodeChunk) domain.SummaryResult {
	if chunks == nil {
		chunks = s.chunker.Chunk(text, language)
	}

	skeleton := Skeleton(chunks)
	architecture := Architecture(text, chunks, filename)
	compressed, table := s.Compressed(text, language)

	return domain.SummaryResult{
		Skeleton:           skeleton,
		SkeletonTokens:     s.estimator.CountTokens(skeleton),
		Architecture:       architecture,
		ArchitectureTokens: s.estimator.CountTokens(architecture),
		CompressedCode:     compressed,
		CompressedTokens:   s.estimator.CountTokens(compressed),
		HashEntries:        table.Entries(),
		HashDecodeMap:      table.DecodeMap(),
		HashEntriesCount:   table.Len(),
		OriginalTokens:     s.estimator.CountTokens(text),
	}
}

// Compressed minifies text aggressively and replaces repeated lines with
// hash references.
func (s *Summariser) Compressed(text, language string) (string, *HashTable) {
	minified := s.minifier.Minify(text, language, true).Minified
	table := NewHashTable()
	return ApplyHashReferences(minified, table, RepeatedPatterns(minified)), table
}

// RepeatedPatterns returns stripped lines of at least MinPatternLength
// bytes that occur MinPatternCount or more times, in order of first
// appearance.
func RepeatedPatterns(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if len(line) < MinPatternLength {
			continue
		}
		if counts[line] == 0 {
			order = append(order, line)
		}
		counts[line]++
	}

	var out []string
	for _, line := range order {
		if counts[line] >= MinPatternCount {
			out = append(out, line)
		}
	}
	return out
}

// ApplyHashReferences replaces patterns, longest first, with their keys.
// A pattern is skipped once fewer than MinPatternCount copies remain.
func ApplyHashReferences(text string, table *HashTable, patterns []string) string {
	sorted := make([]string, len(patterns))
	copy(sorted, patterns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	for _, p := range sorted {
		n := strings.Count(text, p)
		if n < MinPatternCount {
			continue
		}
		key := table.Add(p, n)
		text = strings.ReplaceAll(text, p, key)
	}
	return text
}

// Expand replaces hash keys in code with their patterns. Longer keys go
// first so a widened key is never clobbered by its prefix.
func Expand(code string, decodeMap map[string]string) string {
	keys := make([]string, 0, len(decodeMap))
	for k := range decodeMap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		code = strings.ReplaceAll(code, k, decodeMap[k])
	}
	return code
}

// splitLines splits like a line reader: a trailing newline does not start
// another line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
