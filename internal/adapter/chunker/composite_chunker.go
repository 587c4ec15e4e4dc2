package chunker

import (
	"sort"
	"strings"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

// CompositeChunker routes a file to a grammar parser when one exists for its
// language, to the heuristic chunker otherwise, and fills the gaps with BLOCK
// chunks.
type CompositeChunker struct {
	parsers   map[string]LanguageParser
	heuristic *HeuristicChunker
	filler    *LineChunker
	estimator port.TokenEstimator
	useAST    bool
}

func NewCompositeChunker(maxBlockTokens int, estimator port.TokenEstimator, useAST bool) *CompositeChunker {
	if estimator == nil {
		estimator = analyzer.NewEstimator()
	}

	parsers := make(map[string]LanguageParser)

	goParser := NewGoParser()
	parsers[goParser.Language()] = goParser

	return &CompositeChunker{
		parsers:   parsers,
		heuristic: NewHeuristicChunker(),
		filler:    NewLineChunker(maxBlockTokens, estimator),
		estimator: estimator,
		useAST:    useAST,
	}
}

// Chunk segments text into chunks ordered by start line. A container
// precedes the METHOD chunks nested inside it.
func (c *CompositeChunker) Chunk(text, language string) []domain.CodeChunk {
	if text == "" {
		return nil
	}
	lang, _ := analyzer.Lookup(language)

	chunks := c.structural(text, lang)

	lines := strings.Split(text, "\n")
	covered := make([]bool, len(lines))
	for _, ch := range chunks {
		for l := ch.StartLine; l <= ch.EndLine && l <= len(lines); l++ {
			covered[l-1] = true
		}
	}
	chunks = append(chunks, c.filler.Fill(lines, covered)...)

	for i := range chunks {
		chunks[i].TokenEstimate = c.estimator.CountTokens(chunks[i].Content)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].StartLine != chunks[j].StartLine {
			return chunks[i].StartLine < chunks[j].StartLine
		}
		return chunks[i].EndLine > chunks[j].EndLine
	})

	return chunks
}

func (c *CompositeChunker) structural(text string, lang *analyzer.Language) []domain.CodeChunk {
	if c.useAST {
		if parser, ok := c.parsers[lang.Name]; ok {
			chunks, err := parser.Parse(text)
			if err == nil {
				return chunks
			}
		}
	}
	return c.heuristic.Parse(text, lang)
}

// ExtractSignatures returns the signatures of chunks in order, skipping
// kinds that carry none.
func ExtractSignatures(chunks []domain.CodeChunk) []string {
	var sigs []string
	for _, ch := range chunks {
		if ch.Signature != "" {
			sigs = append(sigs, ch.Signature)
		}
	}
	return sigs
}
