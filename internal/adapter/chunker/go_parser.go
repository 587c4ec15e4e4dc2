package chunker

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"

	"tokentrim/internal/domain"
)

// GoParser chunks Go source with the standard library parser.
type GoParser struct{}

// NewGoParser creates a new Go parser.
func NewGoParser() *GoParser {
	return &GoParser{}
}

// Language returns the language this parser handles.
func (p *GoParser) Language() string {
	return "Go"
}

// Parse parses Go source code and returns its declarations as chunks.
// Doc comments belong to the chunk of the declaration they document.
func (p *GoParser) Parse(content string) ([]domain.CodeChunk, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(content, "\n")
	var chunks []domain.CodeChunk

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			chunks = append(chunks, p.extractFunction(fset, d, lines))

		case *ast.GenDecl:
			chunks = append(chunks, p.extractGenDecl(fset, d, lines)...)
		}
	}

	return chunks, nil
}

func (p *GoParser) extractFunction(fset *token.FileSet, fn *ast.FuncDecl, lines []string) domain.CodeChunk {
	start := fset.Position(fn.Pos()).Line
	if fn.Doc != nil {
		start = fset.Position(fn.Doc.Pos()).Line
	}
	end := fset.Position(fn.End()).Line

	var sig strings.Builder
	sig.WriteString("func ")
	name := fn.Name.Name
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(p.formatFieldList(fn.Recv))
		sig.WriteString(") ")
		if recv := receiverType(fn.Recv.List[0].Type); recv != "" {
			name = recv + "." + name
		}
	}
	sig.WriteString(fn.Name.Name)
	if fn.Type.TypeParams != nil {
		sig.WriteString("[")
		sig.WriteString(p.formatFieldList(fn.Type.TypeParams))
		sig.WriteString("]")
	}
	sig.WriteString("(")
	sig.WriteString(p.formatFieldList(fn.Type.Params))
	sig.WriteString(")")
	sig.WriteString(p.formatResults(fn.Type.Results))

	return domain.CodeChunk{
		Kind:      domain.KindFunction,
		Name:      name,
		StartLine: start,
		EndLine:   end,
		Content:   extractLines(lines, start, end),
		Signature: sig.String(),
	}
}

// receiverType returns the bare type name of a method receiver.
func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// extractGenDecl extracts type, const and import declarations. Package
// level vars are left for the BLOCK fill.
func (p *GoParser) extractGenDecl(fset *token.FileSet, decl *ast.GenDecl, lines []string) []domain.CodeChunk {
	var chunks []domain.CodeChunk

	startLine := fset.Position(decl.Pos()).Line
	if decl.Doc != nil {
		startLine = fset.Position(decl.Doc.Pos()).Line
	}
	endLine := fset.Position(decl.End()).Line

	switch decl.Tok {
	case token.TYPE:
		for _, spec := range decl.Specs {
			ts := spec.(*ast.TypeSpec)

			start := startLine
			end := endLine
			if decl.Lparen.IsValid() {
				start = fset.Position(ts.Pos()).Line
				if ts.Doc != nil {
					start = fset.Position(ts.Doc.Pos()).Line
				}
				end = fset.Position(ts.End()).Line
			}

			kind := domain.KindTypeAlias
			switch ts.Type.(type) {
			case *ast.StructType:
				kind = domain.KindClass
			case *ast.InterfaceType:
				kind = domain.KindInterface
			}

			chunks = append(chunks, domain.CodeChunk{
				Kind:      kind,
				Name:      ts.Name.Name,
				StartLine: start,
				EndLine:   end,
				Content:   extractLines(lines, start, end),
				Signature: p.formatTypeSignature(ts),
			})

			if it, ok := ts.Type.(*ast.InterfaceType); ok {
				chunks = append(chunks, p.extractInterfaceMethods(fset, it, lines)...)
			}
		}

	case token.CONST:
		var names []string
		for _, spec := range decl.Specs {
			vs := spec.(*ast.ValueSpec)
			for _, name := range vs.Names {
				names = append(names, name.Name)
			}
		}

		chunks = append(chunks, domain.CodeChunk{
			Kind:      domain.KindConstant,
			Name:      strings.Join(names, ", "),
			StartLine: startLine,
			EndLine:   endLine,
			Content:   extractLines(lines, startLine, endLine),
			Signature: strings.TrimSpace(lines[fset.Position(decl.Pos()).Line-1]),
		})

	case token.IMPORT:
		start := fset.Position(decl.Pos()).Line
		chunks = append(chunks, domain.CodeChunk{
			Kind:      domain.KindImport,
			Name:      "imports",
			StartLine: start,
			EndLine:   endLine,
			Content:   extractLines(lines, start, endLine),
		})
	}

	return chunks
}

// formatFieldList formats a field list (parameters, results, receiver).
func (p *GoParser) formatFieldList(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fl.List {
		typeStr := p.formatExpr(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeStr)
		} else {
			var names []string
			for _, name := range field.Names {
				names = append(names, name.Name)
			}
			parts = append(parts, strings.Join(names, ", ")+" "+typeStr)
		}
	}
	return strings.Join(parts, ", ")
}

func (p *GoParser) formatResults(results *ast.FieldList) string {
	if results == nil || len(results.List) == 0 {
		return ""
	}
	if len(results.List) > 1 || results.List[0].Names != nil {
		return " (" + p.formatFieldList(results) + ")"
	}
	return " " + p.formatFieldList(results)
}

// formatExpr formats an expression to string.
func (p *GoParser) formatExpr(expr ast.Expr) string {
	var buf bytes.Buffer
	format.Node(&buf, token.NewFileSet(), expr)
	return buf.String()
}

// formatTypeSignature creates a signature for a type declaration.
func (p *GoParser) formatTypeSignature(ts *ast.TypeSpec) string {
	var sig strings.Builder
	sig.WriteString("type ")
	sig.WriteString(ts.Name.Name)
	if ts.TypeParams != nil {
		sig.WriteString("[")
		sig.WriteString(p.formatFieldList(ts.TypeParams))
		sig.WriteString("]")
	}
	sig.WriteString(" ")
	if ts.Assign.IsValid() {
		sig.WriteString("= ")
	}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		sig.WriteString("struct")
	case *ast.InterfaceType:
		sig.WriteString("interface")
	case *ast.Ident:
		sig.WriteString(t.Name)
	default:
		sig.WriteString(p.formatExpr(ts.Type))
	}

	return sig.String()
}

// extractInterfaceMethods emits a METHOD chunk per named interface method.
// Embedded interfaces and type constraints are skipped.
func (p *GoParser) extractInterfaceMethods(fset *token.FileSet, it *ast.InterfaceType, lines []string) []domain.CodeChunk {
	var chunks []domain.CodeChunk
	if it.Methods == nil {
		return chunks
	}

	for _, method := range it.Methods.List {
		ft, ok := method.Type.(*ast.FuncType)
		if !ok || len(method.Names) == 0 {
			continue
		}
		start := fset.Position(method.Pos()).Line
		if method.Doc != nil {
			start = fset.Position(method.Doc.Pos()).Line
		}
		end := fset.Position(method.End()).Line

		for _, name := range method.Names {
			chunks = append(chunks, domain.CodeChunk{
				Kind:      domain.KindMethod,
				Name:      name.Name,
				StartLine: start,
				EndLine:   end,
				Content:   extractLines(lines, start, end),
				Signature: name.Name + "(" + p.formatFieldList(ft.Params) + ")" + p.formatResults(ft.Results),
			})
		}
	}

	return chunks
}
