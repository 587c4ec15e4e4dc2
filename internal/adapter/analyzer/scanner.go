package analyzer

import (
	"strings"
	"unicode/utf8"
)

// SegmentKind classifies a span of scanned text.
type SegmentKind int

const (
	SegmentCode SegmentKind = iota
	SegmentString
	SegmentComment
)

// Segment is a half-open byte range [Start, End) of the scanned text.
type Segment struct {
	Kind  SegmentKind
	Start int
	End   int
}

// regexKeywords may directly precede a regular expression literal.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "in": true, "of": true, "delete": true,
	"void": true, "throw": true, "new": true, "yield": true, "await": true, "else": true, "do": true,
}

type scanner struct {
	text string
	syn  *Syntax
	segs []Segment

	// last significant token outside comments, used to disambiguate "/".
	lastKind SegmentKind
	lastPos  int
}

// Scan splits text into code, string and comment segments. Comment markers
// inside string, character or regular expression literals are never treated
// as comments. Segments cover the text exactly and are in order.
func Scan(text string, syn *Syntax) []Segment {
	if syn == nil {
		syn = textSyntax
	}
	s := &scanner{text: text, syn: syn, lastPos: -1}
	s.run()
	return s.segs
}

func (s *scanner) emit(kind SegmentKind, start, end int) {
	if end <= start {
		return
	}
	if n := len(s.segs); n > 0 && kind == SegmentCode && s.segs[n-1].Kind == SegmentCode && s.segs[n-1].End == start {
		s.segs[n-1].End = end
		return
	}
	s.segs = append(s.segs, Segment{Kind: kind, Start: start, End: end})
}

func (s *scanner) run() {
	text := s.text
	n := len(text)
	i := 0
	for i < n {
		if end, ok := s.blockComment(i); ok {
			s.emit(SegmentComment, i, end)
			i = end
			continue
		}
		if s.lineComment(i) {
			end := lineEnd(text, i)
			if end > i && text[end-1] == '\r' {
				end--
			}
			s.emit(SegmentComment, i, end)
			i = end
			continue
		}
		if end, ok := s.stringLiteral(i); ok {
			s.emit(SegmentString, i, end)
			s.lastKind, s.lastPos = SegmentString, end-1
			i = end
			continue
		}
		c := text[i]
		if s.syn.CodeEscapes && c == '\\' && i+1 < n && text[i+1] != '\n' {
			s.emit(SegmentCode, i, i+2)
			s.lastKind, s.lastPos = SegmentCode, i+1
			i += 2
			continue
		}
		s.emit(SegmentCode, i, i+1)
		if !isSpace(c) {
			s.lastKind, s.lastPos = SegmentCode, i
		}
		i++
	}
}

func (s *scanner) blockComment(i int) (int, bool) {
	for _, d := range s.syn.BlockComments {
		if !strings.HasPrefix(s.text[i:], d.Open) {
			continue
		}
		j := i + len(d.Open)
		depth := 1
		for j < len(s.text) {
			if s.syn.NestedComments && strings.HasPrefix(s.text[j:], d.Open) {
				depth++
				j += len(d.Open)
				continue
			}
			if strings.HasPrefix(s.text[j:], d.Close) {
				depth--
				j += len(d.Close)
				if depth == 0 {
					return j, true
				}
				continue
			}
			j++
		}
		return len(s.text), true
	}
	return 0, false
}

func (s *scanner) lineComment(i int) bool {
	text := s.text
	for _, marker := range s.syn.LineComments {
		if !strings.HasPrefix(text[i:], marker) {
			continue
		}
		if marker == "//" && s.syn.JSXText && i > 0 && text[i-1] == ':' {
			continue
		}
		if marker == "#" && s.syn.HashWordBoundary && i > 0 {
			prev := text[i-1]
			if !isSpace(prev) && prev != ';' && prev != '|' && prev != '&' && prev != '(' {
				continue
			}
		}
		return true
	}
	if len(s.syn.LineStartComments) > 0 {
		ls := lineStart(text, i)
		if strings.TrimLeft(text[ls:i], " \t") != "" {
			return false
		}
		for _, marker := range s.syn.LineStartComments {
			if strings.HasPrefix(text[i:], marker) {
				return true
			}
		}
	}
	return false
}

func (s *scanner) stringLiteral(i int) (int, bool) {
	text := s.text
	c := text[i]

	if end, ok := s.heredoc(i); ok {
		return end, true
	}
	for _, d := range s.syn.LongStrings {
		if strings.HasPrefix(text[i:], d.Open) {
			if k := strings.Index(text[i+len(d.Open):], d.Close); k >= 0 {
				return i + len(d.Open) + k + len(d.Close), true
			}
			return len(text), true
		}
	}

	if c == '`' && s.syn.Backtick {
		return s.quoted(i, "`", !s.syn.BacktickRaw, true), true
	}
	if c == '/' && s.syn.RegexLiteral && s.regexAllowed() {
		if end, ok := s.regex(i); ok {
			return end, true
		}
		return 0, false
	}
	if strings.IndexByte(s.syn.Quotes, c) < 0 {
		return 0, false
	}
	if s.syn.TripleQuotes && strings.HasPrefix(text[i:], strings.Repeat(string(c), 3)) {
		return s.quoted(i, strings.Repeat(string(c), 3), true, true), true
	}
	if c == '\'' && s.syn.CharLiterals {
		return s.charLiteral(i)
	}
	return s.quoted(i, string(c), true, s.syn.MultilineStrings), true
}

// heredoc matches an opener such as <<EOF, <<-'EOF', <<~TXT or <<<"EOT" at i
// and returns the end of the terminating delimiter. The rest of the opener
// line belongs to the literal. Without a terminator it is not a heredoc.
func (s *scanner) heredoc(i int) (int, bool) {
	open := s.syn.Heredoc
	text := s.text
	if open == "" || !strings.HasPrefix(text[i:], open) || i > 0 && text[i-1] == '<' {
		return 0, false
	}
	j := i + len(open)
	if j < len(text) && (text[j] == '-' || text[j] == '~') {
		j++
	}
	if s.syn.ShellHeredoc {
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
	}
	if j >= len(text) {
		return 0, false
	}
	var quote byte
	if text[j] == '\'' || text[j] == '"' {
		quote = text[j]
		j++
	}
	start := j
	for j < len(text) && isWordByte(text[j]) && text[j] != '$' {
		j++
	}
	word := text[start:j]
	if word == "" || word[0] >= '0' && word[0] <= '9' {
		return 0, false
	}
	if quote != 0 {
		if j >= len(text) || text[j] != quote {
			return 0, false
		}
	} else if !s.syn.ShellHeredoc && (word[0] < 'A' || word[0] > 'Z') {
		return 0, false
	}

	pos := lineEnd(text, i)
	for pos < len(text) {
		ls := pos + 1
		le := lineEnd(text, ls)
		line := strings.TrimRight(text[ls:le], "\r")
		body := strings.TrimLeft(line, " \t")
		if s.syn.ShellHeredoc {
			if body == word {
				return ls + len(line), true
			}
		} else if strings.HasPrefix(body, word) && (len(body) == len(word) || !isWordByte(body[len(word)])) {
			return ls + len(line) - len(body) + len(word), true
		}
		pos = le
	}
	return 0, false
}

// quoted scans a literal opened by delim at i and returns its end offset.
// A single-line literal left unterminated stops at the newline.
func (s *scanner) quoted(i int, delim string, escapes, multiline bool) int {
	text := s.text
	j := i + len(delim)
	for j < len(text) {
		c := text[j]
		if escapes && c == '\\' {
			j += 2
			continue
		}
		if c == '\n' && !multiline {
			return j
		}
		if strings.HasPrefix(text[j:], delim) {
			return j + len(delim)
		}
		j++
	}
	return len(text)
}

// charLiteral accepts 'x' and escape forms like '\n' or 'é'. Anything
// else, such as a Rust lifetime, is left to the code path.
func (s *scanner) charLiteral(i int) (int, bool) {
	text := s.text
	if i+1 >= len(text) {
		return 0, false
	}
	if text[i+1] == '\\' {
		limit := i + 12
		if limit > len(text) {
			limit = len(text)
		}
		for j := i + 3; j < limit; j++ {
			if text[j] == '\n' {
				return 0, false
			}
			if text[j] == '\'' {
				return j + 1, true
			}
		}
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(text[i+1:])
	if r == '\'' || r == '\n' {
		return 0, false
	}
	end := i + 1 + size
	if end < len(text) && text[end] == '\'' {
		return end + 1, true
	}
	return 0, false
}

func (s *scanner) regexAllowed() bool {
	if s.lastPos < 0 {
		return true
	}
	if s.lastKind == SegmentString {
		return false
	}
	c := s.text[s.lastPos]
	if isWordByte(c) {
		start := s.lastPos
		for start > 0 && isWordByte(s.text[start-1]) {
			start--
		}
		return regexKeywords[s.text[start:s.lastPos+1]]
	}
	return c != ')' && c != ']'
}

func (s *scanner) regex(i int) (int, bool) {
	text := s.text
	if i+1 >= len(text) || text[i+1] == '/' || text[i+1] == '*' {
		return 0, false
	}
	inClass := false
	j := i + 1
	for j < len(text) {
		c := text[j]
		switch {
		case c == '\n':
			return 0, false
		case c == '\\':
			j += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			j++
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			return j, true
		}
		j++
	}
	return 0, false
}

// Mask returns text with every comment and the inside of every string
// replaced by spaces. Newlines and byte offsets are preserved, so line
// structure and brace positions in code survive.
func Mask(text string, syn *Syntax) string {
	return MaskSegments(text, Scan(text, syn))
}

// MaskSegments is Mask for text that has already been scanned.
func MaskSegments(text string, segs []Segment) string {
	b := []byte(text)
	for _, seg := range segs {
		if seg.Kind == SegmentCode {
			continue
		}
		from, to := seg.Start, seg.End
		if seg.Kind == SegmentString && to-from >= 2 {
			from++
			to--
		}
		for k := from; k < to; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	return string(b)
}

func lineEnd(text string, i int) int {
	if k := strings.IndexByte(text[i:], '\n'); k >= 0 {
		return i + k
	}
	return len(text)
}

func lineStart(text string, i int) int {
	return strings.LastIndexByte(text[:i], '\n') + 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// StringLines reports, for each line of text, whether the line begins inside
// a string literal that opened on an earlier line.
func StringLines(text string, segs []Segment) []bool {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	out := make([]bool, len(starts))
	si := 0
	for li, off := range starts {
		for si < len(segs) && segs[si].End <= off {
			si++
		}
		if si < len(segs) && segs[si].Kind == SegmentString && segs[si].Start < off {
			out[li] = true
		}
	}
	return out
}
