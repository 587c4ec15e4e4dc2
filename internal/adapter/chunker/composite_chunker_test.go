package chunker

import (
	"reflect"
	"testing"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
)

func TestCompositeChunkerOrderingAndFill(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)

	chunks := c.Chunk(goSample, "Go")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	first := chunks[0]
	if first.Kind != domain.KindBlock || first.StartLine != 1 || first.Content != "package shapes" {
		t.Errorf("expected package clause as first BLOCK, got %+v", first)
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartLine < prev.StartLine {
			t.Errorf("chunk %d starts at %d before previous start %d", i, cur.StartLine, prev.StartLine)
		}
		if cur.StartLine == prev.StartLine && cur.EndLine > prev.EndLine {
			t.Errorf("chunk %d should follow its container", i)
		}
	}

	for _, ch := range chunks {
		if ch.StartLine < 1 || ch.EndLine < ch.StartLine {
			t.Errorf("invalid span %d-%d for %q", ch.StartLine, ch.EndLine, ch.Name)
		}
		if ch.TokenEstimate != analyzer.EstimateTokens(ch.Content) {
			t.Errorf("token estimate for %q should cover its own content", ch.Name)
		}
	}

	if _, ok := findChunk(chunks, domain.KindBlock, domain.TopLevelName); !ok {
		t.Error("expected the var declaration to land in a BLOCK")
	}
}

func TestCompositeChunkerFallsBackOnParseError(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)
	src := "package x\n\nfunc Good() {\n}\n\nfunc Bad( {\n"

	chunks := c.Chunk(src, "go")

	if _, ok := findChunk(chunks, domain.KindFunction, "Good"); !ok {
		t.Errorf("heuristic fallback should still find Good, got %+v", chunks)
	}
}

func TestCompositeChunkerWithoutAST(t *testing.T) {
	c := NewCompositeChunker(0, nil, false)

	chunks := c.Chunk(goSample, "Go")

	if _, ok := findChunk(chunks, domain.KindInterface, "Shape"); !ok {
		t.Error("heuristic chunker should find the interface")
	}
	if _, ok := findChunk(chunks, domain.KindFunction, "New"); !ok {
		t.Error("heuristic chunker should find New")
	}
}

func TestCompositeChunkerDeterministic(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)

	for _, tc := range []struct{ lang, src string }{
		{"Go", goSample},
		{"Python", pySample},
		{"JavaScript", jsSample},
	} {
		a := c.Chunk(tc.src, tc.lang)
		b := c.Chunk(tc.src, tc.lang)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: chunking is not deterministic", tc.lang)
		}
		if !reflect.DeepEqual(ExtractSignatures(a), ExtractSignatures(b)) {
			t.Errorf("%s: signatures are not deterministic", tc.lang)
		}
	}
}

func TestCompositeChunkerTokenSum(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)

	for _, tc := range []struct{ lang, src string }{
		{"Go", goSample},
		{"Python", pySample},
		{"JavaScript", jsSample},
	} {
		sum := 0
		for _, ch := range c.Chunk(tc.src, tc.lang) {
			if ch.Kind != domain.KindMethod {
				sum += ch.TokenEstimate
			}
		}
		if total := analyzer.EstimateTokens(tc.src); sum > total {
			t.Errorf("%s: chunk tokens %d exceed file tokens %d", tc.lang, sum, total)
		}
	}
}

func TestCompositeChunkerUnknownLanguage(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)

	chunks := c.Chunk("just some words\n\nand more words\n", "klingon")
	if len(chunks) != 1 {
		t.Fatalf("expected one BLOCK, got %d", len(chunks))
	}
	if chunks[0].Kind != domain.KindBlock || chunks[0].StartLine != 1 || chunks[0].EndLine != 3 {
		t.Errorf("unexpected chunk %+v", chunks[0])
	}

	if got := c.Chunk("", "Go"); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(got))
	}
}

func TestExtractSignatures(t *testing.T) {
	c := NewCompositeChunker(0, nil, true)

	sigs := ExtractSignatures(c.Chunk(pySample, "Python"))
	want := []string{
		"class Stack",
		"def __init__(self)",
		"def push(self, item)",
		"def helper(x: int) -> int",
		"MAX_SIZE = 100",
	}
	if !reflect.DeepEqual(sigs, want) {
		t.Errorf("ExtractSignatures() = %q, want %q", sigs, want)
	}
}
