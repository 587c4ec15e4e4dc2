package summariser

import (
	"fmt"
	"sort"
	"strings"

	"tokentrim/internal/domain"
)

// Skeleton lists declarations without bodies: imports, then containers with
// their methods, then functions, then constants.
func Skeleton(chunks []domain.CodeChunk) string {
	var imports, classes, interfaces, aliases, functions, constants, methods []domain.CodeChunk
	for _, c := range chunks {
		switch c.Kind {
		case domain.KindImport:
			imports = append(imports, c)
		case domain.KindClass:
			classes = append(classes, c)
		case domain.KindInterface:
			interfaces = append(interfaces, c)
		case domain.KindTypeAlias:
			aliases = append(aliases, c)
		case domain.KindFunction:
			functions = append(functions, c)
		case domain.KindConstant:
			constants = append(constants, c)
		case domain.KindMethod:
			methods = append(methods, c)
		case domain.KindBlock:
		default:
			panic("summariser: unhandled chunk kind " + c.Kind.String())
		}
	}

	var out []string
	out = append(out, "// ═══ FILE SKELETON ═══", "")

	if len(imports) > 0 {
		out = append(out, "// Imports:")
		for _, c := range imports {
			for _, line := range splitLines(c.Content) {
				if line = strings.TrimSpace(line); line != "" {
					out = append(out, "  "+line)
				}
			}
		}
		out = append(out, "")
	}

	for _, group := range [][]domain.CodeChunk{classes, interfaces, aliases} {
		for _, c := range group {
			out = append(out, fmt.Sprintf("  %s  // L%d-%d (%d tokens)", c.Signature, c.StartLine, c.EndLine, c.TokenEstimate))
			for _, m := range methods {
				if c.Contains(m) {
					out = append(out, "    "+m.Signature)
				}
			}
			out = append(out, "")
		}
	}

	if len(functions) > 0 {
		out = append(out, "// Functions:")
		for _, c := range functions {
			out = append(out, fmt.Sprintf("  %s  // L%d-%d (%d tokens)", c.Signature, c.StartLine, c.EndLine, c.TokenEstimate))
		}
		out = append(out, "")
	}

	if len(constants) > 0 {
		out = append(out, "// Constants:")
		for _, c := range constants {
			out = append(out, "  "+c.Signature)
		}
		out = append(out, "")
	}

	return strings.Join(out, "\n")
}

// Architecture renders file metadata, dependencies, a component map and
// name cross-references. The cross-reference pass is quadratic in the
// number of chunks.
func Architecture(text string, chunks []domain.CodeChunk, filename string) string {
	if filename == "" {
		filename = "unknown"
	}

	var out []string
	out = append(out,
		"// ═══ ARCHITECTURE SUMMARY ═══",
		"// File: "+filename,
		fmt.Sprintf("// Total lines: %d", len(splitLines(text))),
		fmt.Sprintf("// Chunks: %d", len(chunks)),
		"",
	)

	var imports, components []domain.CodeChunk
	for _, c := range chunks {
		switch c.Kind {
		case domain.KindImport:
			imports = append(imports, c)
		case domain.KindBlock:
		case domain.KindClass, domain.KindInterface, domain.KindTypeAlias,
			domain.KindFunction, domain.KindMethod, domain.KindConstant:
			components = append(components, c)
		default:
			panic("summariser: unhandled chunk kind " + c.Kind.String())
		}
	}

	if len(imports) > 0 {
		out = append(out, "// Dependencies:")
		for _, c := range imports {
			out = append(out, "  "+strings.TrimSpace(c.Content))
		}
		out = append(out, "")
	}

	out = append(out, "// Component Map:")
	for _, c := range components {
		indent := "  "
		if c.Kind == domain.KindMethod {
			indent = "    "
		}
		out = append(out, fmt.Sprintf("%s[%-10s] %-30s L%4d-%-4d ~%d tokens", indent, c.Kind, c.Name, c.StartLine, c.EndLine, c.TokenEstimate))
	}
	out = append(out, "")

	names := make(map[string]bool)
	for _, c := range chunks {
		if c.Name != domain.TopLevelName {
			names[c.Name] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out = append(out, "// Cross-references:")
	for _, c := range components {
		var refs []string
		for _, n := range sorted {
			if n != c.Name && strings.Contains(c.Content, n) {
				refs = append(refs, n)
			}
		}
		if len(refs) > 0 {
			out = append(out, fmt.Sprintf("  %s → %s", c.Name, strings.Join(refs, ", ")))
		}
	}
	out = append(out, "")

	return strings.Join(out, "\n")
}
