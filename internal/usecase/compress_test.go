package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tokentrim/internal/adapter/minifier"
	"tokentrim/internal/domain"
)

func TestCompress_Report(t *testing.T) {
	uc := newTestCompressUseCase(nil)

	r := uc.Compress(context.Background(), CompressInput{Text: repeatedPython, Filename: "config.py"})

	assert.Equal(t, "config.py", r.Filename)
	assert.Equal(t, "Python", r.Language)
	assert.Equal(t, len(repeatedPython), r.FileSize)
	assert.Equal(t, 12, r.OriginalLines)
	assert.Greater(t, r.OriginalTokens, 0)
	assert.Equal(t, len(r.Chunks), r.TotalChunks)
	assert.Equal(t, r.MinifiedTokens, r.Minification.Tokens)
	assert.Equal(t, r.Minification.Code, r.SummaryLevels.Minified.Content)
	assert.Equal(t, 1, r.Minification.CommentsRemoved)

	require.Equal(t, 1, r.HashTable.EntriesCount)
	require.Len(t, r.HashEntries, 1)
	assert.Equal(t, "result = compute_value(path, retries=3)", r.HashEntries[0].Pattern)
	assert.Equal(t, 2, r.HashEntries[0].Occurrences)
	assert.Equal(t, r.HashEntries[0].Pattern, r.HashTable.DecodeMap[r.HashEntries[0].Key])
	assert.Contains(t, r.DecodePreamble, "//  "+r.HashEntries[0].Key+": result = compute_value(path, retries=3)")
}

func TestCompress_BestLevel(t *testing.T) {
	uc := newTestCompressUseCase(nil)

	for _, aggressive := range []bool{false, true} {
		r := uc.Compress(context.Background(), CompressInput{Text: repeatedPython, Filename: "config.py", Aggressive: aggressive})

		if r.MinifiedTokens <= r.SummaryLevels.Compressed.Tokens {
			assert.Equal(t, domain.LevelMinified, r.BestLevel)
			assert.Equal(t, r.MinifiedTokens, r.BestTokens)
		} else {
			assert.Equal(t, domain.LevelCompressed, r.BestLevel)
			assert.Equal(t, r.SummaryLevels.Compressed.Tokens, r.BestTokens)
		}
		want := round2((1 - float64(r.BestTokens)/float64(r.OriginalTokens)) * 100)
		assert.Equal(t, want, r.OverallReductionPct)
	}
}

func TestCompress_ExpandRestoresAggressiveMinify(t *testing.T) {
	uc := newTestCompressUseCase(nil)

	r := uc.Compress(context.Background(), CompressInput{Text: repeatedPython, Filename: "config.py"})

	want := minifier.NewMinifier(nil).Minify(repeatedPython, "Python", true).Minified
	got := ExpandHashReferences(r.SummaryLevels.Compressed.Content, r.HashTable.DecodeMap)
	assert.Equal(t, want, got)
	assert.NotContains(t, r.SummaryLevels.Compressed.Content, "compute_value")
}

func TestCompress_Empty(t *testing.T) {
	uc := newTestCompressUseCase(nil)

	r := uc.Compress(context.Background(), CompressInput{Filename: "empty.go"})

	assert.Equal(t, "Go", r.Language)
	assert.Zero(t, r.OriginalTokens)
	assert.Zero(t, r.OriginalLines)
	assert.Zero(t, r.OverallReductionPct)
	assert.Equal(t, domain.LevelMinified, r.BestLevel)
	assert.NotNil(t, r.HashTable.DecodeMap)
	assert.Empty(t, r.HashTable.DecodeMap)
	assert.NotContains(t, r.DecodePreamble, "Repeated Patterns")
}

func TestCompress_ExplicitLanguageWins(t *testing.T) {
	uc := newTestCompressUseCase(nil)

	r := uc.Compress(context.Background(), CompressInput{Text: "x = 1 # one\n", Filename: "notes.txt", Language: "Python"})

	assert.Equal(t, "Python", r.Language)
	assert.Equal(t, 1, r.Minification.CommentsRemoved)
}

func TestCompress_Deterministic(t *testing.T) {
	uc := newTestCompressUseCase(nil)
	in := CompressInput{Text: repeatedPython, Filename: "config.py", Aggressive: true}

	first := uc.Compress(context.Background(), in)
	second := uc.Compress(context.Background(), in)

	assert.Equal(t, first, second)
}

func TestCompress_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	uc := newTestCompressUseCase(zap.New(core))

	var b strings.Builder
	for i := 0; i < 510; i++ {
		fmt.Fprintf(&b, "def f%d():\n    return %d\n\n", i, i)
	}
	uc.Compress(context.Background(), CompressInput{Text: b.String(), Filename: "many.py"})

	assert.Equal(t, 1, logs.FilterMessage("compressed file").Len())
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "large chunk count")
}

func TestBuildDecodePreamble_NoEntries(t *testing.T) {
	got := BuildDecodePreamble(nil, "Go")

	want := strings.Join([]string{
		"// ═══ TOKENTRIM COMPRESSION ANALYSIS ═══",
		"// This code has been analyzed by TokenTrim.",
		"// All original logic is preserved.",
		"// Comments/blank lines may be removed and repeated patterns may be hash-referenced.",
		"//",
		"// ── Code Info ──",
		"// Language: Go",
		"// 1. All actual code logic is fully preserved.",
		"// 2. Comments and blank lines have been stripped for token efficiency.",
		"// 3. Expand any #hash keys using the decode table to recover repeated patterns.",
		"// ═══════════════════════════════════",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestBuildDecodePreamble_Entries(t *testing.T) {
	long := strings.Repeat("é", 130)
	entries := []domain.HashEntry{
		{Key: "#bbbbbb", Pattern: "line one\nline two", Occurrences: 2},
		{Key: "#aaaaaa", Pattern: long, Occurrences: 3},
	}

	got := BuildDecodePreamble(entries, "Python")

	assert.Contains(t, got, "// ── Repeated Patterns Detected ──\n// The following patterns appear multiple times in the code:\n")
	first := strings.Index(got, "#bbbbbb")
	second := strings.Index(got, "#aaaaaa")
	assert.True(t, first >= 0 && second > first, "entries keep insertion order")
	assert.Contains(t, got, `//  #bbbbbb: line one\nline two`+"\n")
	assert.Contains(t, got, "//  #aaaaaa: "+strings.Repeat("é", 120)+"…\n//\n// ── Code Info ──")
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\n", 2},
		{"\n", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countLines(tt.in), "countLines(%q)", tt.in)
	}
}
