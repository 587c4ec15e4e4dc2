package minifier

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSample = `# header comment
import os


def f(x):
    # inside
    return x  # trailing

s = "# keep"
`

func TestMinify_PythonNonAggressive(t *testing.T) {
	m := NewMinifier(nil)

	res := m.Minify(pythonSample, "Python", false)

	assert.Equal(t, "import os\n\n\ndef f(x):\n    return x\n\ns = \"# keep\"\n", res.Minified)
	assert.Equal(t, 3, res.CommentsRemoved)
	assert.Equal(t, 2, res.BlankLinesRemoved)
	assert.Greater(t, res.ReductionPct, 0.0)
}

func TestMinify_PythonAggressive(t *testing.T) {
	m := NewMinifier(nil)

	res := m.Minify(pythonSample, "Python", true)

	assert.Equal(t, "import os\ndef f(x):\n return x\ns = \"# keep\"\n", res.Minified)
	assert.Equal(t, 3, res.CommentsRemoved)
	assert.Equal(t, 5, res.BlankLinesRemoved)
}

func TestMinify_Idempotent(t *testing.T) {
	m := NewMinifier(nil)
	inputs := map[string]string{
		"Python":     pythonSample,
		"JavaScript": "// a\nfunction f(a) {\n    /* b */ return a / 2; // half\n}\n\n\nconst re = /\\/\\//g;\n",
		"Go":         "package x\n\n// F does f.\nfunc F() {\n\tx := 1 // one\n\t_ = x\n}\n",
		"Plain Text": "line one\n\n\n   indented line\nline two",
	}

	for lang, text := range inputs {
		for _, aggressive := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/aggressive=%v", lang, aggressive), func(t *testing.T) {
				first := m.Minify(text, lang, aggressive)
				second := m.Minify(first.Minified, lang, aggressive)

				assert.Equal(t, first.Minified, second.Minified)
				assert.Zero(t, second.CommentsRemoved)
				assert.Zero(t, second.BlankLinesRemoved)
			})
		}
	}
}

func TestMinify_LiteralsKeepCommentMarkers(t *testing.T) {
	m := NewMinifier(nil)
	src := "const re = /https?:\\/\\//; // match scheme\nconst u = \"http://x\"; /* note */ const v = 1;\n"

	res := m.Minify(src, "JavaScript", false)

	assert.Contains(t, res.Minified, `/https?:\/\//;`)
	assert.Contains(t, res.Minified, `"http://x"`)
	assert.Contains(t, res.Minified, "const v = 1;")
	assert.NotContains(t, res.Minified, "match scheme")
	assert.NotContains(t, res.Minified, "note")
	assert.Equal(t, 2, res.CommentsRemoved)
}

func TestMinify_BlockCommentAcrossLines(t *testing.T) {
	m := NewMinifier(nil)
	src := "int a; /* x\ny */ int b;\n"

	res := m.Minify(src, "C", false)
	assert.Equal(t, "int a;\n int b;\n", res.Minified)
	assert.Equal(t, 1, res.CommentsRemoved)

	res = m.Minify(src, "C", true)
	assert.Equal(t, "int a;\nint b;\n", res.Minified)
}

func TestMinify_CommentBetweenTokensLeavesSpace(t *testing.T) {
	m := NewMinifier(nil)

	res := m.Minify("int/**/x;", "C", false)

	assert.Equal(t, "int x;", res.Minified)
}

func TestMinify_KeepsSemanticComments(t *testing.T) {
	m := NewMinifier(nil)

	res := m.Minify("#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\n# comment\nprint(1)\n", "Python", false)
	assert.Equal(t, "#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\nprint(1)\n", res.Minified)
	assert.Equal(t, 1, res.CommentsRemoved)

	res = m.Minify("//go:build linux\n\n// Package x does y.\npackage x\n", "Go", false)
	assert.Equal(t, "//go:build linux\n\npackage x\n", res.Minified)
	assert.Equal(t, 1, res.CommentsRemoved)
}

func TestMinify_MultilineStringUntouched(t *testing.T) {
	m := NewMinifier(nil)
	src := "def f():\n    s = \"\"\"\n        keep   indentation\n\n    \"\"\"\n    return s\n"

	res := m.Minify(src, "Python", true)

	assert.Equal(t, "def f():\n s = \"\"\"\n        keep   indentation\n\n    \"\"\"\n return s\n", res.Minified)
}

func TestMinify_ContinuationLines(t *testing.T) {
	m := NewMinifier(nil)
	src := "x = call(\n        a,\n        b)\nif x:\n    y = 1\n"

	res := m.Minify(src, "Python", true)

	assert.Equal(t, "x = call(\na,\nb)\nif x:\n y = 1\n", res.Minified)
}

func TestMinify_UnknownLanguageIsNonDestructive(t *testing.T) {
	m := NewMinifier(nil)
	src := "some text # not a comment\n\n\nmore // text"

	res := m.Minify(src, "klingon", false)
	assert.Equal(t, src, res.Minified)
	assert.Zero(t, res.CommentsRemoved)

	res = m.Minify(src, "klingon", true)
	assert.Equal(t, "some text # not a comment\nmore // text", res.Minified)
	assert.Equal(t, 2, res.BlankLinesRemoved)
}

func TestMinify_Empty(t *testing.T) {
	res := NewMinifier(nil).Minify("", "Go", true)

	assert.Equal(t, "", res.Minified)
	assert.Zero(t, res.ReductionPct)
	assert.Zero(t, res.BlankLinesRemoved)
}

func TestMinify_CommentAndBlankCounts(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "# comment %d\n", i)
	}
	for i := 0; i < 5; i++ {
		b.WriteString("\n")
	}
	for i := 0; i < 35; i++ {
		fmt.Fprintf(&b, "value_%d = %d\n", i, i)
	}
	src := b.String()
	require.Equal(t, 50, strings.Count(src, "\n"))

	res := NewMinifier(nil).Minify(src, "Python", false)

	assert.Equal(t, 10, res.CommentsRemoved)
	assert.GreaterOrEqual(t, res.BlankLinesRemoved, 5)
	assert.Greater(t, res.ReductionPct, 0.0)
}

func TestMinify_PreservesCRLF(t *testing.T) {
	res := NewMinifier(nil).Minify("a = 1 # c\r\nb = 2\r\n", "Python", false)

	assert.Equal(t, "a = 1\r\nb = 2\r\n", res.Minified)
}

func TestMinify_YAMLBracketsDoNotContinue(t *testing.T) {
	m := NewMinifier(nil)
	src := "server:\n  note: see (docs\n  port: 8080\n  tls:\n    enabled: true\n"

	res := m.Minify(src, "YAML", true)

	assert.Equal(t, "server:\n note: see (docs\n port: 8080\n tls:\n  enabled: true\n", res.Minified)
	assert.Equal(t, res.Minified, m.Minify(res.Minified, "YAML", true).Minified)
}

func TestMinify_YAMLTrailingBackslash(t *testing.T) {
	m := NewMinifier(nil)
	src := "paths:\n  win: C:\\temp\\\n\n  other: 1\n"

	first := m.Minify(src, "YAML", true)
	second := m.Minify(first.Minified, "YAML", true)

	assert.Equal(t, "paths:\n win: C:\\temp\\\n other: 1\n", first.Minified)
	assert.Equal(t, first.Minified, second.Minified)
}

func TestMinify_MarkdownKeepsListNesting(t *testing.T) {
	m := NewMinifier(nil)
	src := "# Title\n\n- a (see\n  - b\n    - c\n\n<!-- note -->\n    code block\n"

	res := m.Minify(src, "Markdown", true)

	assert.Equal(t, "# Title\n- a (see\n  - b\n    - c\n    code block\n", res.Minified)
	assert.Equal(t, 1, res.CommentsRemoved)
}

func TestMinify_BackslashBeforeBlankLineIsStable(t *testing.T) {
	m := NewMinifier(nil)
	src := "x = 1 \\\n\nif x:\n    y = 1\n"

	first := m.Minify(src, "Python", true)
	second := m.Minify(first.Minified, "Python", true)

	assert.Equal(t, "x = 1 \\\n\nif x:\n y = 1\n", first.Minified)
	assert.Equal(t, first.Minified, second.Minified)
	assert.Zero(t, second.BlankLinesRemoved)
}

func TestMinify_HeredocAndJSXTextUntouched(t *testing.T) {
	m := NewMinifier(nil)
	tests := []struct {
		language string
		src      string
		want     string
		removed  int
	}{
		{"Shell", "cat <<EOF\n# kept in heredoc\n  indented\nEOF\n# gone\necho done\n", "cat <<EOF\n# kept in heredoc\n  indented\nEOF\necho done\n", 1},
		{"Ruby", "s = <<~TXT\n  # heading\nTXT\n", "s = <<~TXT\n  # heading\nTXT\n", 0},
		{"TypeScript (React)", "const el = <p>Visit https://example.com now</p>;\n", "const el = <p>Visit https://example.com now</p>;\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			res := m.Minify(tt.src, tt.language, false)

			require.Equal(t, tt.want, res.Minified)
			assert.Equal(t, tt.removed, res.CommentsRemoved)
		})
	}
}
