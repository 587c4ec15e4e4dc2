package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokentrim/config"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/usecase"
)

const samplePython = `import os


def load(path):
    # read the file
    result = compute_value(path, retries=3)
    return result


def save(path):
    result = compute_value(path, retries=3)
    return result
`

func testServices(t *testing.T) *services {
	t.Helper()
	return newServices(config.DefaultConfig(), nil)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestLevelContent(t *testing.T) {
	svc := testServices(t)
	r := svc.compress.Compress(context.Background(), usecase.CompressInput{Text: samplePython, Filename: "app.py"})

	for _, level := range []string{domain.LevelMinified, domain.LevelSkeleton, domain.LevelArchitecture, domain.LevelCompressed} {
		_, err := levelContent(r, level)
		assert.NoError(t, err, level)
	}

	best, err := levelContent(r, "best")
	require.NoError(t, err)
	want, _ := levelContent(r, r.BestLevel)
	assert.Equal(t, want, best)

	pre, err := levelContent(r, "preamble")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pre, r.DecodePreamble))

	_, err = levelContent(r, "bogus")
	assert.Error(t, err)
}

func TestParseDecodeMap(t *testing.T) {
	m, err := parseDecodeMap([]byte(`{"#abc123": "x = 1"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"#abc123": "x = 1"}, m)

	m, err = parseDecodeMap([]byte(`{"filename": "a.py", "hashTable": {"decodeMap": {"#k": "v"}, "entriesCount": 1}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"#k": "v"}, m)

	_, err = parseDecodeMap([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestSerialiseBundle_AllFormatsParse(t *testing.T) {
	svc := testServices(t)
	b := svc.lossless.Encode([]domain.SourceFile{{Name: "app.py", Text: samplePython}}, time.Now())

	for _, format := range []string{"json", "envelope", "annotated", "zstd"} {
		t.Run(format, func(t *testing.T) {
			data, err := serialiseBundle(b, format, true)
			require.NoError(t, err)

			parsed, err := lossless.ParseBundle(data)
			require.NoError(t, err)
			files, err := svc.lossless.Decode(parsed)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, samplePython, files[0].Text)
		})
	}

	_, err := serialiseBundle(b, "xml", false)
	assert.Error(t, err)
}

func TestWriteSourceFiles(t *testing.T) {
	dir := t.TempDir()
	files := []domain.SourceFile{
		{Name: "a.py", Text: "a\n"},
		{Name: "pkg/b.go", Text: "package pkg\n"},
	}
	require.NoError(t, writeSourceFiles(dir, files))

	data, err := os.ReadFile(filepath.Join(dir, "pkg", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, "package pkg\n", string(data))

	err = writeSourceFiles(dir, []domain.SourceFile{{Name: "../escape.txt", Text: "x"}})
	assert.Error(t, err)
}

func TestPrintSourceFiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSourceFiles(&buf, []domain.SourceFile{{Name: "a", Text: "exact"}}))
	assert.Equal(t, "exact", buf.String())

	buf.Reset()
	require.NoError(t, printSourceFiles(&buf, []domain.SourceFile{{Name: "a", Text: "one"}, {Name: "b", Text: "two\n"}}))
	assert.Equal(t, "# === a ===\none\n\n# === b ===\ntwo\n", buf.String())
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "util.py"), []byte("x = 1\n"), 0644))
	single := filepath.Join(dir, "main.go")

	svc := testServices(t)
	files, err := loadSources(svc, []string{dir, single, "-"}, strings.NewReader("from stdin"))
	require.NoError(t, err)
	require.Len(t, files, 4)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Contains(t, names, filepath.ToSlash(filepath.Join(dir, "sub/util.py")))
	assert.Equal(t, "stdin", files[3].Name)
	assert.Equal(t, "from stdin", files[3].Text)
	assert.Equal(t, "Go", files[2].Language)

	_, err = loadSources(svc, []string{filepath.Join(dir, "missing")}, nil)
	assert.Error(t, err)
}

func TestEstimateOutput(t *testing.T) {
	rows := []domain.FileAnalysis{
		{FileName: "a.py", FileSize: 10, Language: "Python", TokenEstimate: 3},
		{FileName: "b|c.go", FileSize: 20, Language: "Go", TokenEstimate: 5},
	}

	text := estimateText(rows)
	assert.Contains(t, text, "a.py")
	assert.Contains(t, text, "8  total")

	md := estimateMarkdown(rows)
	assert.Contains(t, md, `| b\|c.go | Go | 20 | 5 |`)
	assert.Contains(t, md, "| **total** | | 30 | 8 |")
}

func TestRenderReport(t *testing.T) {
	svc := testServices(t)
	r := svc.compress.Compress(context.Background(), usecase.CompressInput{Text: samplePython, Filename: "app.py"})

	out := renderReport(r)
	assert.Contains(t, out, "app.py")
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, r.BestLevel)
}

func TestMCP_CompressSource(t *testing.T) {
	svc := testServices(t)
	handler := makeCompressHandler(svc)

	text, isErr := callTool(t, handler, map[string]any{"content": samplePython, "filename": "app.py", "level": "minified"})
	assert.False(t, isErr)
	assert.NotContains(t, text, "# read the file")

	text, isErr = callTool(t, handler, map[string]any{"content": samplePython, "filename": "app.py", "level": "report"})
	assert.False(t, isErr)
	assert.Contains(t, text, `"bestLevel"`)

	_, isErr = callTool(t, handler, map[string]any{"content": ""})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]any{"content": "x = 1", "level": "nope"})
	assert.True(t, isErr)
}

func TestMCP_ExpandHashes(t *testing.T) {
	handler := makeExpandHandler()

	text, isErr := callTool(t, handler, map[string]any{"code": "#k\n", "decode_map": `{"#k": "value = 1"}`})
	assert.False(t, isErr)
	assert.Equal(t, "value = 1\n", text)

	_, isErr = callTool(t, handler, map[string]any{"code": "#k", "decode_map": "not json"})
	assert.True(t, isErr)
}

func TestMCP_EstimateTokens(t *testing.T) {
	text, isErr := callTool(t, makeEstimateHandler(testServices(t)), map[string]any{"content": samplePython, "filename": "app.py"})
	assert.False(t, isErr)
	assert.Contains(t, text, "tokens (Python,")
}

func TestMCP_LosslessRoundTrip(t *testing.T) {
	svc := testServices(t)

	env, isErr := callTool(t, makeLosslessEncodeHandler(svc), map[string]any{"content": samplePython, "filename": "app.py"})
	require.False(t, isErr)
	assert.True(t, strings.HasPrefix(env, "<<TTLB:1>>"))

	text, isErr := callTool(t, makeLosslessDecodeHandler(svc), map[string]any{"bundle": env})
	require.False(t, isErr)
	assert.Equal(t, samplePython, text)

	_, isErr = callTool(t, makeLosslessDecodeHandler(svc), map[string]any{"bundle": `{"files": []}`})
	assert.True(t, isErr)
}

func TestNewMCPServer(t *testing.T) {
	assert.NotNil(t, newMCPServer(testServices(t)))
}

func TestEnableReportCache(t *testing.T) {
	svc := testServices(t)
	svc.enableReportCache(config.DefaultConfig())

	in := usecase.CompressInput{Text: samplePython, Filename: "app.py"}
	assert.Same(t, svc.compressReport(context.Background(), in), svc.compressReport(context.Background(), in))
	assert.NotSame(t, svc.compress.Compress(context.Background(), in), svc.compress.Compress(context.Background(), in))
}
