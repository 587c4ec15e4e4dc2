package chunker

import (
	"regexp"
	"strings"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
)

const modifiers = `^(?:(?:export|default|declare|public|private|protected|internal|static|final|abstract|sealed|open|data|inline|partial|unsafe|extern|pub(?:\([\w:]+\))?|async|override|virtual|readonly|suspend|@\w+(?:\([^)]*\))?)\s+)*`

var (
	braceImport   = regexp.MustCompile(`^(?:import\b|#\s*include\b|#import\b|using\s+(?:static\s+)?[\w.]+\s*(?:=\s*[\w.<>]+\s*)?;|use\s+[\w:\\{]|require(?:_once)?\b|include(?:_once)?\b|@import\b|extern\s+crate\b|(?:const|let|var)\s+[\w${}\s,]+=\s*require\()`)
	namespaceLine = regexp.MustCompile(`^(?:export\s+)?(?:namespace|module|extern\s+"C")\b[^;]*\{\s*$`)
	goTypeDecl    = regexp.MustCompile(`^type\s+([\w$]+)(?:\[[^\]]*\])?\s+(struct|interface)\b`)
	typeAliasDecl = regexp.MustCompile(modifiers + `(?:type|typealias)\s+([\w$]+)`)
	typedefDecl   = regexp.MustCompile(`^typedef\b`)
	interfaceDecl = regexp.MustCompile(modifiers + `(?:interface|protocol)\s+([\w$]+)`)
	classDecl     = regexp.MustCompile(modifiers + `(?:enum\s+(?:class|struct)|class|struct|enum|trait|object|record|union|impl(?:<[^>]*>)?)\s+([\w$:]+)`)
	keywordFunc   = regexp.MustCompile(modifiers + `(?:function\*?|func|fn|fun|def|sub|proc)\s+(?:\([^)]*\)\s*)?([\w$.]+)`)
	bindingDecl   = regexp.MustCompile(modifiers + `(?:const|let|var|val)\s+([\w$]+)`)
	arrowValue    = regexp.MustCompile(`=\s*(?:async\s+)?(?:function\b|\(|[\w$]+\s*=>)`)
	funcValue     = regexp.MustCompile(`=\s*(?:async\s+)?function\b`)
	rAssignFunc   = regexp.MustCompile(`^([\w.]+)\s*(?:<-|=)\s*function\b`)
	cStyleFunc    = regexp.MustCompile(modifiers + `(?:[\w$<>\[\]*&:,.?]+\s+)+[*&]*([\w$~:]+)\s*\(`)
	shellFunc     = regexp.MustCompile(`^([\w.:-]+)\s*\(\)\s*\{?\s*$`)
	upperConst    = regexp.MustCompile(modifiers + `(?:const\s+|static\s+|final\s+)*(?:[\w<>\[\],.?]+\s+)?([A-Z][A-Z0-9_]+)\s*(?::[^=]*)?=`)
	defineDecl    = regexp.MustCompile(`^#\s*define\s+([\w$]+)`)
	prefaceLine   = regexp.MustCompile(`^(?:@[\w.]+|#\[|template\s*<)`)

	memberFunc   = regexp.MustCompile(modifiers + `(?:(?:get|set|static|async|\*)\s+)*(?:[\w$<>\[\],.?:*&]+\s+)*[*&]?#?([\w$~]+)\s*(?:<[^>(]*>)?\s*\(`)
	memberKwFunc = regexp.MustCompile(modifiers + `(?:function|func|fn|fun|def)\s+([\w$]+)`)

	pyImport   = regexp.MustCompile(`^(?:import\s|from\s+\S+\s+import\b)`)
	pyDef      = regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)`)
	pyClass    = regexp.MustCompile(`^class\s+(\w+)`)
	pyTypeDecl = regexp.MustCompile(`^type\s+(\w+)\s*(?:\[[^\]]*\])?\s*=|^(\w+)\s*:\s*TypeAlias\s*=`)
	pyConst    = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=`)

	kwImport = regexp.MustCompile(`^(?:require(?:_relative)?\b|import\s|alias\s|use\s|local\s+\w+\s*=\s*require\b)`)
	kwClass  = regexp.MustCompile(`^(?:class|module|defmodule)\s+([\w:.]+)`)
	kwFunc   = regexp.MustCompile(`^(?:local\s+)?(?:def|defp|defmacro|function)\s+(?:self\.)?([\w.:?!=]+)`)
)

var controlWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
	"new": true, "else": true, "do": true, "try": true, "synchronized": true, "using": true,
	"lock": true, "foreach": true, "when": true, "throw": true, "case": true, "sizeof": true,
	"typeof": true, "delete": true, "await": true, "yield": true, "match": true, "with": true,
	"elif": true, "until": true, "unless": true, "super": true, "this": true, "assert": true,
	"func": true, "function": true,
}

// source bundles the per-line views of the text being chunked.
type source struct {
	lines    []string
	masked   []string
	inString []bool
	lang     *analyzer.Language
}

func newSource(text string, lang *analyzer.Language) *source {
	segs := analyzer.Scan(text, lang.Syntax)
	return &source{
		lines:    strings.Split(text, "\n"),
		masked:   strings.Split(analyzer.MaskSegments(text, segs), "\n"),
		inString: analyzer.StringLines(text, segs),
		lang:     lang,
	}
}

func (s *source) code(i int) string {
	return strings.TrimSpace(s.masked[i])
}

// text returns line i trimmed, without a trailing comment.
func (s *source) text(i int) string {
	if i+1 < len(s.inString) && s.inString[i+1] {
		return strings.TrimSpace(s.lines[i])
	}
	masked := strings.TrimRight(s.masked[i], " \t\r")
	return strings.TrimSpace(s.lines[i][:len(masked)])
}

func (s *source) blank(i int) bool {
	return strings.TrimSpace(s.lines[i]) == ""
}

// commentOnly reports a line that holds only a comment.
func (s *source) commentOnly(i int) bool {
	return !s.blank(i) && s.code(i) == "" && !s.inString[i]
}

func (s *source) indent(i int) int {
	line := s.lines[i]
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func (s *source) chunk(kind domain.ChunkKind, name string, start, end int, sig string) domain.CodeChunk {
	return domain.CodeChunk{
		Kind:      kind,
		Name:      name,
		StartLine: start + 1,
		EndLine:   end + 1,
		Content:   strings.Join(s.lines[start:end+1], "\n"),
		Signature: sig,
	}
}

// HeuristicChunker finds declarations with line patterns rather than a
// grammar. It handles brace-, indentation- and keyword-delimited languages.
type HeuristicChunker struct{}

func NewHeuristicChunker() *HeuristicChunker {
	return &HeuristicChunker{}
}

// Parse returns the structural chunks of text without BLOCK fill or token counts.
func (h *HeuristicChunker) Parse(text string, lang *analyzer.Language) []domain.CodeChunk {
	if text == "" {
		return nil
	}
	src := newSource(text, lang)
	switch lang.Family {
	case analyzer.FamilyBrace:
		return parseBrace(src)
	case analyzer.FamilyIndent:
		return parseIndent(src)
	case analyzer.FamilyKeyword:
		return parseKeyword(src)
	case analyzer.FamilyText:
		return nil
	default:
		panic("chunker: unhandled language family")
	}
}

// braceDepths returns the brace depth at the start of every line, not
// counting namespace-like wrappers whose bodies hold top-level declarations.
func braceDepths(src *source) []int {
	depths := make([]int, len(src.masked))
	var stack []bool
	depth := 0
	for i, line := range src.masked {
		depths[i] = depth
		transparent := namespaceLine.MatchString(strings.TrimSpace(line))
		for k := 0; k < len(line); k++ {
			switch line[k] {
			case '{':
				stack = append(stack, transparent)
				if !transparent {
					depth++
				}
				transparent = false
			case '}':
				if len(stack) == 0 {
					continue
				}
				if !stack[len(stack)-1] {
					depth--
				}
				stack = stack[:len(stack)-1]
			}
		}
	}
	return depths
}

func parseBrace(src *source) []domain.CodeChunk {
	depths := braceDepths(src)
	var chunks []domain.CodeChunk

	for i := 0; i < len(src.lines); i++ {
		if depths[i] != 0 || src.code(i) == "" || src.inString[i] {
			continue
		}
		code := src.code(i)
		if prefaceLine.MatchString(code) {
			continue
		}
		kind, name, ok := classifyBrace(code, src.lang.Name == "Shell")
		if !ok {
			continue
		}

		needsBody := kind != domain.KindImport && kind != domain.KindConstant && kind != domain.KindTypeAlias
		end := statementEnd(src, i, needsBody)
		if kind == domain.KindConstant && (funcValue.MatchString(code) || arrowValue.MatchString(code) && strings.Contains(joinCode(src, i, end), "=>")) {
			kind = domain.KindFunction
		}
		if kind == domain.KindTypeAlias && typedefDecl.MatchString(code) && end > i {
			name = typedefName(src.code(end))
		}
		start := prefaceStart(src, i, depths)
		if n := len(chunks); n > 0 && start <= chunks[n-1].EndLine-1 {
			start = i
		}

		sig := ""
		switch kind {
		case domain.KindImport:
		case domain.KindConstant:
			sig = src.text(i)
		case domain.KindClass, domain.KindInterface, domain.KindTypeAlias, domain.KindFunction, domain.KindMethod:
			sig = braceSignature(src, i, end)
		case domain.KindBlock:
		default:
			panic("chunker: unhandled chunk kind " + kind.String())
		}
		if kind == domain.KindImport {
			name = importName(src.text(i))
		}
		chunks = append(chunks, src.chunk(kind, name, start, end, sig))

		if kind.IsContainer() {
			chunks = append(chunks, braceMembers(src, depths, i, end)...)
		}
		i = end
	}
	return chunks
}

func classifyBrace(code string, shell bool) (domain.ChunkKind, string, bool) {
	if braceImport.MatchString(code) {
		return domain.KindImport, "", true
	}
	if m := goTypeDecl.FindStringSubmatch(code); m != nil {
		if m[2] == "interface" {
			return domain.KindInterface, m[1], true
		}
		return domain.KindClass, m[1], true
	}
	if m := interfaceDecl.FindStringSubmatch(code); m != nil {
		return domain.KindInterface, m[1], true
	}
	if m := classDecl.FindStringSubmatch(code); m != nil {
		return domain.KindClass, m[1], true
	}
	if typedefDecl.MatchString(code) {
		return domain.KindTypeAlias, typedefName(code), true
	}
	if m := typeAliasDecl.FindStringSubmatch(code); m != nil {
		return domain.KindTypeAlias, m[1], true
	}
	if m := keywordFunc.FindStringSubmatch(code); m != nil && !controlWords[m[1]] {
		return domain.KindFunction, m[1], true
	}
	if m := defineDecl.FindStringSubmatch(code); m != nil {
		return domain.KindConstant, m[1], true
	}
	if m := upperConst.FindStringSubmatch(code); m != nil {
		return domain.KindConstant, m[1], true
	}
	if m := bindingDecl.FindStringSubmatch(code); m != nil {
		if strings.Contains(m[0], "const") || arrowValue.MatchString(code) {
			return domain.KindConstant, m[1], true
		}
		return 0, "", false
	}
	if m := rAssignFunc.FindStringSubmatch(code); m != nil {
		return domain.KindFunction, m[1], true
	}
	if m := shellFunc.FindStringSubmatch(code); m != nil && shell {
		return domain.KindFunction, m[1], true
	}
	if m := cStyleFunc.FindStringSubmatch(code); m != nil && !controlWords[m[1]] && !beforeParen(code, '=') {
		first := strings.Fields(code)[0]
		if !controlWords[first] {
			return domain.KindFunction, m[1], true
		}
	}
	return 0, "", false
}

func typedefName(code string) string {
	fields := strings.FieldsFunc(strings.TrimRight(code, "; {"), func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if len(fields) == 0 {
		return "typedef"
	}
	switch last := fields[len(fields)-1]; last {
	case "typedef", "struct", "enum", "union":
		return "typedef"
	default:
		return last
	}
}

func importName(code string) string {
	name := strings.TrimRight(code, "; {")
	if len(name) > 80 {
		name = name[:80]
	}
	return name
}

// beforeParen reports whether c occurs before the first "(" of code.
func beforeParen(code string, c byte) bool {
	p := strings.IndexByte(code, '(')
	if p < 0 {
		p = len(code)
	}
	return strings.IndexByte(code[:p], c) >= 0
}

// prefaceStart walks back over annotations and comment lines that belong
// to the declaration on line i.
func prefaceStart(src *source, i int, depths []int) int {
	start := i
	for j := i - 1; j >= 0; j-- {
		if depths != nil && depths[j] != depths[i] {
			break
		}
		if src.commentOnly(j) || prefaceLine.MatchString(src.code(j)) {
			start = j
			continue
		}
		break
	}
	return start
}

// statementEnd finds the last line of the statement starting at line i by
// balancing brackets. Declarations with a body follow an opening brace on a
// later line; others end at a semicolon or a line with no continuation.
func statementEnd(src *source, i int, needsBody bool) int {
	depth := 0
	sawBrace := false
	n := len(src.masked)
	for j := i; j < n; j++ {
		line := src.masked[j]
		for k := 0; k < len(line); k++ {
			switch line[k] {
			case '(', '[':
				depth++
			case '{':
				depth++
				sawBrace = true
			case ')', ']', '}':
				depth--
			case ';':
				if depth == 0 && !sawBrace {
					return j
				}
			}
		}
		if depth > 0 || j+1 < n && src.inString[j+1] {
			continue
		}
		if sawBrace {
			return j
		}
		if needsBody {
			if k := nextCode(src, j+1); k < n && strings.HasPrefix(src.code(k), "{") {
				continue
			}
			return j
		}
		if !continues(strings.TrimSpace(line)) {
			return j
		}
	}
	return n - 1
}

func nextCode(src *source, from int) int {
	for k := from; k < len(src.masked); k++ {
		if src.code(k) != "" {
			return k
		}
	}
	return len(src.masked)
}

func continues(code string) bool {
	if code == "" {
		return true
	}
	return strings.ContainsAny(code[len(code)-1:], ",=+-*/%&|?:.([{<\\")
}

func joinCode(src *source, start, end int) string {
	return strings.Join(src.masked[start:end+1], "\n")
}

// braceSignature returns the declaration header up to its body opener.
func braceSignature(src *source, start, end int) string {
	var parts []string
	depth := 0
	for j := start; j <= end; j++ {
		line, masked := src.lines[j], src.masked[j]
		for k := 0; k < len(masked) && k < len(line); k++ {
			switch masked[k] {
			case '(', '[':
				depth++
			case ')', ']':
				depth--
			case '{':
				if depth == 0 {
					parts = append(parts, line[:k])
					return collapse(strings.Join(parts, " "))
				}
			}
		}
		parts = append(parts, line)
	}
	return strings.TrimRight(collapse(strings.Join(parts, " ")), ";")
}

func collapse(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// braceMembers finds methods one level inside the container spanning
// lines start..end.
func braceMembers(src *source, depths []int, start, end int) []domain.CodeChunk {
	var members []domain.CodeChunk
	bodyDepth := depths[start] + 1
	for j := start + 1; j <= end; j++ {
		if depths[j] != bodyDepth || src.inString[j] {
			continue
		}
		code := src.code(j)
		if code == "" || prefaceLine.MatchString(code) {
			continue
		}
		name, ok := memberName(code)
		if !ok {
			continue
		}
		mend := j
		if !strings.HasSuffix(code, ";") {
			mend = statementEnd(src, j, true)
		}
		if mend > end {
			mend = end
		}
		mstart := prefaceStart(src, j, depths)
		members = append(members, src.chunk(domain.KindMethod, name, mstart, mend, braceSignature(src, j, mend)))
		j = mend
	}
	return members
}

func memberName(code string) (string, bool) {
	if m := memberKwFunc.FindStringSubmatch(code); m != nil {
		return m[1], true
	}
	m := memberFunc.FindStringSubmatch(code)
	if m == nil || controlWords[m[1]] || beforeParen(code, '=') {
		return "", false
	}
	if first := strings.Fields(code)[0]; controlWords[first] {
		return "", false
	}
	return m[1], true
}

func parseIndent(src *source) []domain.CodeChunk {
	var chunks []domain.CodeChunk
	for i := 0; i < len(src.lines); i++ {
		if src.indent(i) != 0 || src.code(i) == "" || src.inString[i] {
			continue
		}
		code := src.code(i)
		switch {
		case pyImport.MatchString(code):
			end := pyStatementEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindImport, importName(src.text(i)), i, end, ""))
			i = end
		case pyClass.MatchString(code):
			name := pyClass.FindStringSubmatch(code)[1]
			end := indentBlockEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindClass, name, decoratorStart(src, i), end, pySignature(src, i)))
			chunks = append(chunks, pyMembers(src, i, end)...)
			i = end
		case pyDef.MatchString(code):
			name := pyDef.FindStringSubmatch(code)[1]
			end := indentBlockEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindFunction, name, decoratorStart(src, i), end, pySignature(src, i)))
			i = end
		case pyTypeDecl.MatchString(code):
			m := pyTypeDecl.FindStringSubmatch(code)
			name := m[1]
			if name == "" {
				name = m[2]
			}
			end := pyStatementEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindTypeAlias, name, i, end, src.text(i)))
			i = end
		case pyConst.MatchString(code):
			name := pyConst.FindStringSubmatch(code)[1]
			end := pyStatementEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindConstant, name, i, end, src.text(i)))
			i = end
		}
	}
	return chunks
}

// pyStatementEnd follows open brackets and backslash continuations.
func pyStatementEnd(src *source, i int) int {
	depth := 0
	for j := i; j < len(src.masked); j++ {
		line := strings.TrimRight(src.masked[j], " \t\r")
		for k := 0; k < len(line); k++ {
			switch line[k] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
		}
		if depth <= 0 && !strings.HasSuffix(line, "\\") && (j+1 >= len(src.inString) || !src.inString[j+1]) {
			return j
		}
	}
	return len(src.masked) - 1
}

// indentBlockEnd returns the last non-blank line of the block headed at
// line i: the header itself plus every following line that is blank, inside
// a string, or indented deeper than the header.
func indentBlockEnd(src *source, i int) int {
	header := pyStatementEnd(src, i)
	base := src.indent(i)
	end := header
	for j := header + 1; j < len(src.lines); j++ {
		if src.inString[j] {
			end = j
			continue
		}
		if src.code(j) == "" {
			continue
		}
		if src.indent(j) <= base {
			break
		}
		end = j
	}
	return end
}

func decoratorStart(src *source, i int) int {
	start := i
	base := src.indent(i)
	for j := i - 1; j >= 0; j-- {
		if src.blank(j) || src.indent(j) != base {
			break
		}
		if strings.HasPrefix(src.code(j), "@") || src.commentOnly(j) {
			start = j
			continue
		}
		break
	}
	return start
}

// pySignature returns the header of a def or class up to the colon that
// opens its body.
func pySignature(src *source, i int) string {
	end := pyStatementEnd(src, i)
	orig := strings.Join(src.lines[i:end+1], " ")
	masked := strings.Join(src.masked[i:end+1], " ")
	depth := 0
scan:
	for k := 0; k < len(masked); k++ {
		switch masked[k] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				orig = orig[:k]
				break scan
			}
		}
	}
	return collapse(strings.ReplaceAll(orig, "\\ ", " "))
}

func pyMembers(src *source, start, end int) []domain.CodeChunk {
	var members []domain.CodeChunk
	bodyIndent := -1
	for j := start + 1; j <= end; j++ {
		if src.blank(j) || src.inString[j] || src.code(j) == "" {
			continue
		}
		ind := src.indent(j)
		if bodyIndent < 0 {
			bodyIndent = ind
		}
		if ind != bodyIndent {
			continue
		}
		m := pyDef.FindStringSubmatch(src.code(j))
		if m == nil {
			continue
		}
		mend := indentBlockEnd(src, j)
		if mend > end {
			mend = end
		}
		members = append(members, src.chunk(domain.KindMethod, m[1], decoratorStart(src, j), mend, pySignature(src, j)))
		j = mend
	}
	return members
}

func parseKeyword(src *source) []domain.CodeChunk {
	var chunks []domain.CodeChunk
	for i := 0; i < len(src.lines); i++ {
		if src.indent(i) != 0 || src.code(i) == "" || src.inString[i] {
			continue
		}
		code := src.code(i)
		switch {
		case kwImport.MatchString(code):
			chunks = append(chunks, src.chunk(domain.KindImport, importName(src.text(i)), i, i, ""))
		case kwClass.MatchString(code):
			name := kwClass.FindStringSubmatch(code)[1]
			end := keywordBlockEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindClass, name, prefaceStart(src, i, nil), end, keywordSignature(src, i)))
			chunks = append(chunks, keywordMembers(src, i, end)...)
			i = end
		case kwFunc.MatchString(code):
			name := kwFunc.FindStringSubmatch(code)[1]
			end := keywordBlockEnd(src, i)
			chunks = append(chunks, src.chunk(domain.KindFunction, name, prefaceStart(src, i, nil), end, keywordSignature(src, i)))
			i = end
		case pyConst.MatchString(code):
			name := pyConst.FindStringSubmatch(code)[1]
			chunks = append(chunks, src.chunk(domain.KindConstant, name, i, i, src.text(i)))
		}
	}
	return chunks
}

// keywordBlockEnd extends an indentation block over its closing "end" line.
func keywordBlockEnd(src *source, i int) int {
	end := indentBlockEnd(src, i)
	if k := nextCode(src, end+1); k < len(src.lines) && src.indent(k) == src.indent(i) {
		if w := strings.Fields(src.code(k)); len(w) > 0 && strings.HasPrefix(w[0], "end") {
			return k
		}
	}
	return end
}

func keywordSignature(src *source, i int) string {
	sig := src.text(i)
	sig = strings.TrimSuffix(sig, " do")
	return strings.TrimSpace(sig)
}

func keywordMembers(src *source, start, end int) []domain.CodeChunk {
	var members []domain.CodeChunk
	bodyIndent := -1
	for j := start + 1; j < end; j++ {
		if src.code(j) == "" || src.inString[j] {
			continue
		}
		ind := src.indent(j)
		if bodyIndent < 0 {
			bodyIndent = ind
		}
		if ind != bodyIndent {
			continue
		}
		m := kwFunc.FindStringSubmatch(src.code(j))
		if m == nil {
			continue
		}
		mend := keywordBlockEnd(src, j)
		if mend > end {
			mend = end
		}
		members = append(members, src.chunk(domain.KindMethod, m[1], j, mend, keywordSignature(src, j)))
		j = mend
	}
	return members
}
