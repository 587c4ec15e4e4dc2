package analyzer

import (
	"path/filepath"
	"strings"
)

// PlainText is the display name used when no language matches.
const PlainText = "Plain Text"

// Family groups languages by how their structure is delimited.
type Family int

const (
	// FamilyText has no recognizable declarations.
	FamilyText Family = iota
	// FamilyBrace delimits blocks with curly braces.
	FamilyBrace
	// FamilyIndent delimits blocks with indentation.
	FamilyIndent
	// FamilyKeyword delimits blocks with an opening keyword and a closing "end".
	FamilyKeyword
)

// Delim is a pair of opening and closing markers.
type Delim struct {
	Open  string
	Close string
}

// Syntax describes the lexical rules needed to tell comments from literals.
type Syntax struct {
	LineComments      []string
	LineStartComments []string
	BlockComments     []Delim
	NestedComments    bool
	// HashWordBoundary restricts "#" comments to the start of a word, as in shells.
	HashWordBoundary bool

	Quotes           string
	TripleQuotes     bool
	MultilineStrings bool
	// Backtick strings: raw ones take no escapes (Go), others do (JS templates).
	Backtick     bool
	BacktickRaw  bool
	CharLiterals bool
	RegexLiteral bool
	LongStrings  []Delim
	CodeEscapes  bool
	// Heredoc is the opener of a here-document ("<<" or "<<<"). The body
	// runs from the opener to the line holding only the delimiter word.
	Heredoc string
	// ShellHeredoc allows blanks before the word, lowercase words and
	// requires the terminator alone on its line.
	ShellHeredoc bool
	// JSXText treats "//" right after ':' as URL text inside markup.
	JSXText bool

	// Directives are comment prefixes that carry meaning and must be kept.
	Directives     []string
	EncodingCookie bool

	IndentSensitive bool
	// LineContinuation joins lines inside open brackets or after a trailing
	// backslash into one logical line.
	LineContinuation bool
	// KeepIndent leaves leading whitespace as written; its exact width
	// carries meaning (Markdown list nesting and indented code).
	KeepIndent bool
}

// Language pairs a display name with its syntax.
type Language struct {
	Name   string
	Family Family
	Syntax *Syntax
}

var (
	cSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
		CharLiterals:  true,
	}
	nestedCSyntax = &Syntax{
		LineComments:   []string{"//"},
		BlockComments:  []Delim{{"/*", "*/"}},
		NestedComments: true,
		Quotes:         `"'`,
		TripleQuotes:   true,
		CharLiterals:   true,
	}
	goSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
		Backtick:      true,
		BacktickRaw:   true,
		CharLiterals:  true,
		Directives:    []string{"//go:", "// +build", "//line ", "//export ", "//nolint"},
	}
	rustSyntax = &Syntax{
		LineComments:   []string{"//"},
		BlockComments:  []Delim{{"/*", "*/"}},
		NestedComments: true,
		Quotes:         `"'`,
		CharLiterals:   true,
	}
	jsSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
		Backtick:      true,
		RegexLiteral:  true,
		Directives:    []string{"/// <reference", "/// <amd", "// @ts-", "//@ts-", "// @jsx", "/* @jsx", "/** @jsx"},
	}
	dartSyntax = &Syntax{
		LineComments:   []string{"//"},
		BlockComments:  []Delim{{"/*", "*/"}},
		NestedComments: true,
		Quotes:         `"'`,
		TripleQuotes:   true,
	}
	jsxSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
		Backtick:      true,
		RegexLiteral:  true,
		JSXText:       true,
		Directives:    jsSyntax.Directives,
	}
	phpSyntax = &Syntax{
		LineComments:     []string{"//"},
		BlockComments:    []Delim{{"/*", "*/"}},
		Quotes:           `"'`,
		Backtick:         true,
		MultilineStrings: true,
		Heredoc:          "<<<",
	}
	pythonSyntax = &Syntax{
		LineComments:     []string{"#"},
		Quotes:           `"'`,
		TripleQuotes:     true,
		EncodingCookie:   true,
		IndentSensitive:  true,
		LineContinuation: true,
	}
	shellSyntax = &Syntax{
		LineComments:     []string{"#"},
		HashWordBoundary: true,
		Quotes:           `"'`,
		Backtick:         true,
		MultilineStrings: true,
		CodeEscapes:      true,
		Heredoc:          "<<",
		ShellHeredoc:     true,
	}
	hashSyntax = &Syntax{
		LineComments:     []string{"#"},
		HashWordBoundary: true,
		Quotes:           `"'`,
		MultilineStrings: true,
	}
	rubySyntax = &Syntax{
		LineComments:     []string{"#"},
		HashWordBoundary: true,
		Quotes:           `"'`,
		MultilineStrings: true,
		Heredoc:          "<<",
	}
	yamlSyntax = &Syntax{
		LineComments:     []string{"#"},
		HashWordBoundary: true,
		Quotes:           `"'`,
		IndentSensitive:  true,
	}
	powershellSyntax = &Syntax{
		LineComments:     []string{"#"},
		HashWordBoundary: true,
		BlockComments:    []Delim{{"<#", "#>"}},
		Quotes:           `"'`,
		MultilineStrings: true,
	}
	sqlSyntax = &Syntax{
		LineComments:     []string{"--"},
		BlockComments:    []Delim{{"/*", "*/"}},
		Quotes:           `"'`,
		MultilineStrings: true,
	}
	luaSyntax = &Syntax{
		LineComments:  []string{"--"},
		BlockComments: []Delim{{"--[[", "]]"}},
		Quotes:        `"'`,
		LongStrings:   []Delim{{"[[", "]]"}},
	}
	haskellSyntax = &Syntax{
		LineComments:    []string{"--"},
		BlockComments:   []Delim{{"{-", "-}"}},
		NestedComments:  true,
		Quotes:          `"`,
		IndentSensitive: true,
	}
	ocamlSyntax = &Syntax{
		BlockComments:  []Delim{{"(*", "*)"}},
		NestedComments: true,
		Quotes:         `"`,
	}
	lispSyntax = &Syntax{
		LineComments: []string{";"},
		Quotes:       `"`,
	}
	erlangSyntax = &Syntax{
		LineComments: []string{"%"},
		Quotes:       `"'`,
	}
	texSyntax = &Syntax{
		LineComments:    []string{"%"},
		CodeEscapes:     true,
		IndentSensitive: true,
	}
	cssSyntax = &Syntax{
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
	}
	scssSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"'`,
	}
	sassSyntax = &Syntax{
		LineComments:    []string{"//"},
		BlockComments:   []Delim{{"/*", "*/"}},
		Quotes:          `"'`,
		IndentSensitive: true,
	}
	markupSyntax = &Syntax{
		BlockComments: []Delim{{"<!--", "-->"}},
	}
	markdownSyntax = &Syntax{
		BlockComments:   []Delim{{"<!--", "-->"}},
		IndentSensitive: true,
		KeepIndent:      true,
	}
	jsonSyntax = &Syntax{
		LineComments:  []string{"//"},
		BlockComments: []Delim{{"/*", "*/"}},
		Quotes:        `"`,
	}
	graphqlSyntax = &Syntax{
		LineComments: []string{"#"},
		Quotes:       `"`,
		TripleQuotes: true,
	}
	batchSyntax = &Syntax{
		LineStartComments: []string{"::", "REM ", "rem ", "@REM ", "@rem "},
		Quotes:            `"`,
	}
	textSyntax = &Syntax{
		IndentSensitive: true,
	}
)

var languages = map[string]*Language{}

// extensionNames maps lowercase extensions without the dot to display names.
var extensionNames = map[string]string{
	"js": "JavaScript", "jsx": "JavaScript (React)", "mjs": "JavaScript", "cjs": "JavaScript",
	"ts": "TypeScript", "tsx": "TypeScript (React)",
	"py": "Python", "pyw": "Python", "pyi": "Python",
	"c": "C", "h": "C", "cpp": "C++", "cc": "C++", "cxx": "C++", "hpp": "C++", "hxx": "C++", "cs": "C#",
	"java": "Java", "kt": "Kotlin", "kts": "Kotlin", "scala": "Scala", "groovy": "Groovy",
	"html": "HTML", "htm": "HTML", "css": "CSS", "scss": "SCSS", "sass": "Sass", "less": "Less",
	"vue": "Vue", "svelte": "Svelte",
	"json": "JSON", "jsonc": "JSON", "yaml": "YAML", "yml": "YAML", "toml": "TOML", "xml": "XML",
	"csv": "CSV", "env": "Dotenv",
	"go": "Go", "rs": "Rust", "swift": "Swift", "dart": "Dart", "rb": "Ruby", "php": "PHP", "r": "R",
	"lua": "Lua", "zig": "Zig", "nim": "Nim", "ex": "Elixir", "exs": "Elixir", "erl": "Erlang",
	"hs": "Haskell", "ml": "OCaml", "clj": "Clojure",
	"sh": "Shell", "bash": "Shell", "zsh": "Shell", "fish": "Shell", "ps1": "PowerShell",
	"bat": "Batch", "cmd": "Batch",
	"sql": "SQL", "graphql": "GraphQL", "gql": "GraphQL",
	"md": "Markdown", "mdx": "MDX", "rst": "reStructuredText", "txt": PlainText, "tex": "LaTeX", "log": PlainText,
}

// aliases maps short or informal tags to display names.
var aliases = map[string]string{
	"golang": "Go", "javascript": "JavaScript", "typescript": "TypeScript", "python": "Python",
	"python3": "Python", "c++": "C++", "csharp": "C#", "c#": "C#", "shell": "Shell", "bash": "Shell",
	"sh": "Shell", "text": PlainText, "plaintext": PlainText, "plain": PlainText, "node": "JavaScript",
	"rust": "Rust", "ruby": "Ruby", "kotlin": "Kotlin", "markdown": "Markdown", "latex": "LaTeX",
}

func register(name string, family Family, syn *Syntax) {
	languages[strings.ToLower(name)] = &Language{Name: name, Family: family, Syntax: syn}
}

func init() {
	register("JavaScript", FamilyBrace, jsSyntax)
	register("JavaScript (React)", FamilyBrace, jsxSyntax)
	register("TypeScript", FamilyBrace, jsSyntax)
	register("TypeScript (React)", FamilyBrace, jsxSyntax)
	register("Python", FamilyIndent, pythonSyntax)
	register("C", FamilyBrace, cSyntax)
	register("C++", FamilyBrace, cSyntax)
	register("C#", FamilyBrace, cSyntax)
	register("Java", FamilyBrace, cSyntax)
	register("Kotlin", FamilyBrace, nestedCSyntax)
	register("Scala", FamilyBrace, nestedCSyntax)
	register("Swift", FamilyBrace, nestedCSyntax)
	register("Groovy", FamilyBrace, dartSyntax)
	register("Dart", FamilyBrace, dartSyntax)
	register("Go", FamilyBrace, goSyntax)
	register("Rust", FamilyBrace, rustSyntax)
	register("Zig", FamilyBrace, cSyntax)
	register("PHP", FamilyBrace, phpSyntax)
	register("Ruby", FamilyKeyword, rubySyntax)
	register("Elixir", FamilyKeyword, hashSyntax)
	register("Lua", FamilyKeyword, luaSyntax)
	register("R", FamilyBrace, hashSyntax)
	register("Nim", FamilyIndent, &Syntax{LineComments: []string{"#"}, Quotes: `"'`, TripleQuotes: true, IndentSensitive: true, LineContinuation: true})
	register("Erlang", FamilyText, erlangSyntax)
	register("Haskell", FamilyText, haskellSyntax)
	register("OCaml", FamilyText, ocamlSyntax)
	register("Clojure", FamilyText, lispSyntax)
	register("Shell", FamilyBrace, shellSyntax)
	register("PowerShell", FamilyBrace, powershellSyntax)
	register("Batch", FamilyText, batchSyntax)
	register("SQL", FamilyText, sqlSyntax)
	register("GraphQL", FamilyBrace, graphqlSyntax)
	register("HTML", FamilyText, markupSyntax)
	register("XML", FamilyText, markupSyntax)
	register("Vue", FamilyText, markupSyntax)
	register("Svelte", FamilyText, markupSyntax)
	register("CSS", FamilyText, cssSyntax)
	register("SCSS", FamilyText, scssSyntax)
	register("Less", FamilyText, scssSyntax)
	register("Sass", FamilyText, sassSyntax)
	register("JSON", FamilyText, jsonSyntax)
	register("YAML", FamilyText, yamlSyntax)
	register("TOML", FamilyText, hashSyntax)
	register("Dotenv", FamilyText, hashSyntax)
	register("CSV", FamilyText, textSyntax)
	register("Markdown", FamilyText, markdownSyntax)
	register("MDX", FamilyText, markdownSyntax)
	register("reStructuredText", FamilyText, textSyntax)
	register("LaTeX", FamilyText, texSyntax)
	register(PlainText, FamilyText, textSyntax)
}

// DetectLanguage returns the display name for filename based on its last
// extension, case-insensitively. Unknown or missing extensions yield PlainText.
func DetectLanguage(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return PlainText
	}
	if name, ok := extensionNames[ext]; ok {
		return name
	}
	return PlainText
}

// Lookup resolves a language tag. It accepts display names, extensions and
// common aliases in any case. Unknown tags resolve to plain text with ok=false.
func Lookup(tag string) (*Language, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if lang, ok := languages[key]; ok {
		return lang, true
	}
	if name, ok := aliases[key]; ok {
		return languages[strings.ToLower(name)], true
	}
	if name, ok := extensionNames[strings.TrimPrefix(key, ".")]; ok {
		return languages[strings.ToLower(name)], true
	}
	return languages[strings.ToLower(PlainText)], false
}
