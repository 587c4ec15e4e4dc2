package minifier

import (
	"math"
	"regexp"
	"strings"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
)

// encodingCookie matches a PEP 263 source encoding declaration.
var encodingCookie = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*[-\w.]+`)

// Minifier removes comments, blank lines and redundant indentation while
// leaving string and regular expression literals untouched.
type Minifier struct {
	estimator port.TokenEstimator
}

// NewMinifier creates a minifier that reports reductions with estimator.
func NewMinifier(estimator port.TokenEstimator) *Minifier {
	if estimator == nil {
		estimator = analyzer.NewEstimator()
	}
	return &Minifier{estimator: estimator}
}

type lineInfo struct {
	text           string
	hadComment     bool
	inString       bool
	continuation   bool
	afterBackslash bool
	carriageReturn bool
}

// Minify strips comments from text. Aggressive mode also drops every blank
// line and collapses indentation. Unknown languages only lose blank lines.
func (m *Minifier) Minify(text, language string, aggressive bool) domain.MinifyResult {
	lang, _ := analyzer.Lookup(language)
	syn := lang.Syntax

	stripped, commentLines, removed := stripComments(text, syn)

	trailingNewline := strings.HasSuffix(text, "\n")
	body := stripped
	if trailingNewline {
		body = strings.TrimSuffix(body, "\n")
	}

	lines := buildLines(text, body, syn, commentLines)

	var indents *indentLevels
	if aggressive && syn.IndentSensitive {
		indents = &indentLevels{}
	}

	out := make([]string, 0, len(lines))
	blankRemoved := 0
	for _, ln := range lines {
		s := ln.text
		if ln.hadComment && !ln.inString {
			s = strings.TrimRight(s, " \t")
		}
		blank := strings.TrimSpace(s) == ""
		if blank && !ln.inString && !ln.afterBackslash && (ln.hadComment || aggressive) {
			blankRemoved++
			continue
		}
		if aggressive && !ln.inString {
			s = reindent(s, syn, ln.continuation, indents)
		}
		if ln.carriageReturn {
			s += "\r"
		}
		out = append(out, s)
	}

	minified := strings.Join(out, "\n")
	if trailingNewline && len(out) > 0 {
		minified += "\n"
	}

	return domain.MinifyResult{
		Minified:          minified,
		CommentsRemoved:   removed,
		BlankLinesRemoved: blankRemoved,
		ReductionPct:      reductionPct(m.estimator.CountTokens(text), m.estimator.CountTokens(minified)),
	}
}

// stripComments drops every removable comment. Newlines inside a comment are
// kept so the output has the same line count as the input, and a single space
// is kept where removal would otherwise join two tokens.
func stripComments(text string, syn *analyzer.Syntax) (string, map[int]bool, int) {
	segs := analyzer.Scan(text, syn)
	commentLines := make(map[int]bool)
	removed := 0

	var b strings.Builder
	b.Grow(len(text))
	line := 0
	var last byte
	for _, seg := range segs {
		chunk := text[seg.Start:seg.End]
		if seg.Kind != analyzer.SegmentComment || keepComment(text, seg, line, syn) {
			b.WriteString(chunk)
			last = chunk[len(chunk)-1]
			line += strings.Count(chunk, "\n")
			continue
		}

		removed++
		commentLines[line] = true
		newlines := strings.Count(chunk, "\n")
		for k := 1; k <= newlines; k++ {
			commentLines[line+k] = true
		}
		line += newlines

		if newlines > 0 {
			b.WriteString(strings.Repeat("\n", newlines))
			last = '\n'
			continue
		}
		if b.Len() > 0 && seg.End < len(text) && !isBlank(last) && !isBlank(text[seg.End]) {
			b.WriteByte(' ')
			last = ' '
		}
	}
	return b.String(), commentLines, removed
}

func keepComment(text string, seg analyzer.Segment, line int, syn *analyzer.Syntax) bool {
	comment := text[seg.Start:seg.End]
	if seg.Start == 0 && strings.HasPrefix(comment, "#!") {
		return true
	}
	if syn.EncodingCookie && line < 2 {
		start := strings.LastIndexByte(text[:seg.Start], '\n') + 1
		if encodingCookie.MatchString(text[start:seg.End]) {
			return true
		}
	}
	for _, prefix := range syn.Directives {
		if strings.HasPrefix(comment, prefix) {
			return true
		}
	}
	return false
}

// buildLines pairs each stripped line with facts taken from the original:
// whether it begins inside a string literal and, for languages with line
// continuation, whether it continues an open bracket or a backslash-joined
// line. A blank line after a backslash ends the logical line and is kept.
func buildLines(original, body string, syn *analyzer.Syntax, commentLines map[int]bool) []lineInfo {
	if body == "" && original == "" {
		return nil
	}
	strippedLines := strings.Split(body, "\n")

	segs := analyzer.Scan(original, syn)
	masked := analyzer.MaskSegments(original, segs)
	maskedLines := strings.Split(masked, "\n")

	inString := analyzer.StringLines(original, segs)

	lines := make([]lineInfo, len(strippedLines))
	depth := 0
	prevBackslash := false
	for i, s := range strippedLines {
		info := lineInfo{text: s, hadComment: commentLines[i]}
		if strings.HasSuffix(s, "\r") {
			info.text = strings.TrimSuffix(s, "\r")
			info.carriageReturn = true
		}
		if i < len(inString) {
			info.inString = inString[i]
		}
		if !syn.LineContinuation {
			lines[i] = info
			continue
		}
		info.continuation = depth > 0 || prevBackslash
		info.afterBackslash = prevBackslash
		if i < len(maskedLines) {
			code := strings.TrimRight(maskedLines[i], " \t\r")
			depth += bracketDelta(code)
			if depth < 0 {
				depth = 0
			}
			prevBackslash = strings.HasSuffix(code, "\\")
		}
		lines[i] = info
	}
	return lines
}

func bracketDelta(code string) int {
	d := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '(', '[', '{':
			d++
		case ')', ']', '}':
			d--
		}
	}
	return d
}

// indentLevels maps indentation widths to nesting depth with a width stack.
type indentLevels struct {
	stack []int
}

func (l *indentLevels) level(width int) int {
	if len(l.stack) == 0 {
		l.stack = append(l.stack, 0)
	}
	for len(l.stack) > 1 && l.stack[len(l.stack)-1] > width {
		l.stack = l.stack[:len(l.stack)-1]
	}
	if top := l.stack[len(l.stack)-1]; width > top {
		l.stack = append(l.stack, width)
	}
	return len(l.stack) - 1
}

func reindent(s string, syn *analyzer.Syntax, continuation bool, levels *indentLevels) string {
	if syn.KeepIndent {
		return s
	}
	body := strings.TrimLeft(s, " \t")
	if !syn.IndentSensitive || continuation || levels == nil {
		return body
	}
	width := indentWidth(s[:len(s)-len(body)])
	return strings.Repeat(" ", levels.level(width)) + body
}

// indentWidth counts columns with tab stops every eight columns.
func indentWidth(ws string) int {
	w := 0
	for i := 0; i < len(ws); i++ {
		if ws[i] == '\t' {
			w += 8 - w%8
		} else {
			w++
		}
	}
	return w
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func reductionPct(original, minified int) float64 {
	if original == 0 {
		return 0
	}
	return math.Round((1-float64(minified)/float64(original))*10000) / 100
}
