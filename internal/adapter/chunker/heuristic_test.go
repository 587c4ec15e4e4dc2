package chunker

import (
	"testing"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/domain"
)

func parseWith(t *testing.T, language, text string) []domain.CodeChunk {
	t.Helper()
	lang, ok := analyzer.Lookup(language)
	if !ok {
		t.Fatalf("unknown language %q", language)
	}
	return NewHeuristicChunker().Parse(text, lang)
}

func findChunk(chunks []domain.CodeChunk, kind domain.ChunkKind, name string) (domain.CodeChunk, bool) {
	for _, c := range chunks {
		if c.Kind == kind && c.Name == name {
			return c, true
		}
	}
	return domain.CodeChunk{}, false
}

func expectSpan(t *testing.T, chunks []domain.CodeChunk, kind domain.ChunkKind, name string, start, end int) domain.CodeChunk {
	t.Helper()
	c, ok := findChunk(chunks, kind, name)
	if !ok {
		t.Fatalf("expected %s chunk %q, got %+v", kind, name, chunks)
	}
	if c.StartLine != start || c.EndLine != end {
		t.Errorf("%s %q: expected lines %d-%d, got %d-%d", kind, name, start, end, c.StartLine, c.EndLine)
	}
	return c
}

const jsSample = `import { a } from "./a";

export class Greeter {
  constructor(name) {
    this.name = name;
  }

  greet() {
    return "hi // not a comment " + this.name;
  }
}

export function helper(x) {
  return x * 2;
}

const LIMIT = 10;
`

func TestHeuristicBraceLanguage(t *testing.T) {
	chunks := parseWith(t, "JavaScript", jsSample)

	imp := expectSpan(t, chunks, domain.KindImport, `import { a } from "./a"`, 1, 1)
	if imp.Signature != "" {
		t.Errorf("import should have no signature, got %q", imp.Signature)
	}

	class := expectSpan(t, chunks, domain.KindClass, "Greeter", 3, 11)
	if class.Signature != "export class Greeter" {
		t.Errorf("unexpected class signature %q", class.Signature)
	}

	ctor := expectSpan(t, chunks, domain.KindMethod, "constructor", 4, 6)
	greet := expectSpan(t, chunks, domain.KindMethod, "greet", 8, 10)
	if greet.Signature != "greet()" {
		t.Errorf("unexpected method signature %q", greet.Signature)
	}
	if !class.Contains(ctor) || !class.Contains(greet) {
		t.Error("class span should contain both methods")
	}

	fn := expectSpan(t, chunks, domain.KindFunction, "helper", 13, 15)
	if fn.Signature != "export function helper(x)" {
		t.Errorf("unexpected function signature %q", fn.Signature)
	}

	expectSpan(t, chunks, domain.KindConstant, "LIMIT", 17, 17)
}

func TestHeuristicJavaClassWithTwoMethods(t *testing.T) {
	src := `package demo;

import java.util.List;

/** Counts things. */
public class Counter {
    private int count;

    public void increment() {
        count++;
    }

    @Override
    public String toString() {
        return "Counter{" + count + "}";
    }
}
`
	chunks := parseWith(t, "Java", src)

	expectSpan(t, chunks, domain.KindImport, "import java.util.List", 3, 3)
	class := expectSpan(t, chunks, domain.KindClass, "Counter", 5, 17)

	inc := expectSpan(t, chunks, domain.KindMethod, "increment", 9, 11)
	str := expectSpan(t, chunks, domain.KindMethod, "toString", 13, 16)
	if inc.StartLine >= str.StartLine {
		t.Error("methods should be in source order")
	}
	if !class.Contains(inc) || !class.Contains(str) {
		t.Error("class span should contain both methods")
	}
	if str.Signature != "public String toString()" {
		t.Errorf("unexpected signature %q", str.Signature)
	}
}

func TestHeuristicCFunctionsAndMacros(t *testing.T) {
	src := `#include <stdio.h>

#define MAX_ITEMS 16

typedef struct {
    int x;
} point;

static int add(int a, int b)
{
    return a + b;
}
`
	chunks := parseWith(t, "C", src)

	expectSpan(t, chunks, domain.KindImport, "#include <stdio.h>", 1, 1)
	expectSpan(t, chunks, domain.KindConstant, "MAX_ITEMS", 3, 3)
	expectSpan(t, chunks, domain.KindTypeAlias, "point", 5, 7)
	add := expectSpan(t, chunks, domain.KindFunction, "add", 9, 12)
	if add.Signature != "static int add(int a, int b)" {
		t.Errorf("unexpected signature %q", add.Signature)
	}
}

const pySample = `import os
from typing import List


class Stack:
    """A stack."""

    def __init__(self):
        self.items = []

    def push(self, item):
        self.items.append(item)


def helper(x: int) -> int:
    return x + 1


MAX_SIZE = 100
`

func TestHeuristicIndentLanguage(t *testing.T) {
	chunks := parseWith(t, "Python", pySample)

	expectSpan(t, chunks, domain.KindImport, "import os", 1, 1)
	expectSpan(t, chunks, domain.KindImport, "from typing import List", 2, 2)

	class := expectSpan(t, chunks, domain.KindClass, "Stack", 5, 12)
	if class.Signature != "class Stack" {
		t.Errorf("unexpected class signature %q", class.Signature)
	}
	init := expectSpan(t, chunks, domain.KindMethod, "__init__", 8, 9)
	push := expectSpan(t, chunks, domain.KindMethod, "push", 11, 12)
	if !class.Contains(init) || !class.Contains(push) {
		t.Error("class span should contain both methods")
	}
	if push.Signature != "def push(self, item)" {
		t.Errorf("unexpected method signature %q", push.Signature)
	}

	fn := expectSpan(t, chunks, domain.KindFunction, "helper", 15, 16)
	if fn.Signature != "def helper(x: int) -> int" {
		t.Errorf("unexpected function signature %q", fn.Signature)
	}

	expectSpan(t, chunks, domain.KindConstant, "MAX_SIZE", 19, 19)
}

func TestHeuristicDecoratorsBelongToDefinition(t *testing.T) {
	src := "@cache\n@trace(level=2)\ndef load(path):\n    return open(path).read()\n"

	chunks := parseWith(t, "Python", src)

	fn := expectSpan(t, chunks, domain.KindFunction, "load", 1, 4)
	if fn.Signature != "def load(path)" {
		t.Errorf("unexpected signature %q", fn.Signature)
	}
}

func TestHeuristicKeywordLanguage(t *testing.T) {
	src := `require "json"

class Greeter
  def initialize(name)
    @name = name
  end

  def greet
    "hi #{@name}"
  end
end

def helper
  42
end
`
	chunks := parseWith(t, "Ruby", src)

	expectSpan(t, chunks, domain.KindImport, `require "json"`, 1, 1)
	class := expectSpan(t, chunks, domain.KindClass, "Greeter", 3, 11)
	init := expectSpan(t, chunks, domain.KindMethod, "initialize", 4, 6)
	greet := expectSpan(t, chunks, domain.KindMethod, "greet", 8, 10)
	if !class.Contains(init) || !class.Contains(greet) {
		t.Error("class span should contain both methods")
	}
	expectSpan(t, chunks, domain.KindFunction, "helper", 13, 15)
}

func TestHeuristicPlainTextHasNoStructure(t *testing.T) {
	chunks := parseWith(t, "Plain Text", "class Foo {\n}\n")
	if len(chunks) != 0 {
		t.Errorf("expected no structural chunks, got %d", len(chunks))
	}
}

func TestHeuristicIgnoresDeclarationsInStrings(t *testing.T) {
	src := "const TEMPLATE = `\nfunction fake() {\n}\n`;\n"

	chunks := parseWith(t, "JavaScript", src)

	if _, ok := findChunk(chunks, domain.KindFunction, "fake"); ok {
		t.Error("function inside a template literal should not be chunked")
	}
	expectSpan(t, chunks, domain.KindConstant, "TEMPLATE", 1, 4)
}
