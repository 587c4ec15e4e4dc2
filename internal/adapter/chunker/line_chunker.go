package chunker

import (
	"strings"

	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

// LineChunker turns lines that no declaration claimed into BLOCK chunks.
// A positive maxTokens splits long runs at line boundaries.
type LineChunker struct {
	maxTokens int
	estimator port.TokenEstimator
}

func NewLineChunker(maxTokens int, estimator port.TokenEstimator) *LineChunker {
	return &LineChunker{
		maxTokens: maxTokens,
		estimator: estimator,
	}
}

// Fill returns BLOCK chunks for every maximal run of uncovered lines,
// trimmed of leading and trailing blank lines.
func (c *LineChunker) Fill(lines []string, covered []bool) []domain.CodeChunk {
	var blocks []domain.CodeChunk
	i := 0
	for i < len(lines) {
		if covered[i] {
			i++
			continue
		}
		start := i
		for i < len(lines) && !covered[i] {
			i++
		}
		end := i - 1

		for start <= end && strings.TrimSpace(lines[start]) == "" {
			start++
		}
		for end >= start && strings.TrimSpace(lines[end]) == "" {
			end--
		}
		if start > end {
			continue
		}
		blocks = append(blocks, c.split(lines, start, end)...)
	}
	return blocks
}

func (c *LineChunker) split(lines []string, start, end int) []domain.CodeChunk {
	if c.maxTokens <= 0 {
		return []domain.CodeChunk{blockChunk(lines, start, end)}
	}

	var chunks []domain.CodeChunk
	for start <= end {
		stop := start
		currentTokens := 0
		for stop <= end {
			lineTokens := c.estimator.CountTokens(lines[stop])
			if currentTokens > 0 && currentTokens+lineTokens > c.maxTokens {
				break
			}
			currentTokens += lineTokens
			stop++
		}
		if stop == start {
			stop++
		}

		last := stop - 1
		for last > start && strings.TrimSpace(lines[last]) == "" {
			last--
		}
		chunks = append(chunks, blockChunk(lines, start, last))

		start = stop
		for start <= end && strings.TrimSpace(lines[start]) == "" {
			start++
		}
	}
	return chunks
}

func blockChunk(lines []string, start, end int) domain.CodeChunk {
	return domain.CodeChunk{
		Kind:      domain.KindBlock,
		Name:      domain.TopLevelName,
		StartLine: start + 1,
		EndLine:   end + 1,
		Content:   strings.Join(lines[start:end+1], "\n"),
	}
}
