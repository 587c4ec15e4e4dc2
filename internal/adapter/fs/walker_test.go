package fs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_IncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, "pkg", "util.go"), "package pkg\n")
	writeFile(t, filepath.Join(root, "vendor", "dep", "dep.go"), "package dep\n")
	writeFile(t, filepath.Join(root, "web", "app.min.js"), "x")

	w := NewWalker([]string{"**/*.go", "**/*.js"}, []string{"**/vendor/**", "**/*.min.js"}, 0)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
	}
	want := []string{"main.go", "pkg/util.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWalker_MaxSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.txt"), "abc")
	writeFile(t, filepath.Join(root, "big.txt"), "0123456789")

	files, err := NewWalker(nil, nil, 5).Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "small.txt" {
		t.Errorf("expected only small.txt, got %+v", files)
	}
	if files[0].Size != 3 {
		t.Errorf("expected size 3, got %d", files[0].Size)
	}
}

func TestWalker_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "one.py")
	writeFile(t, path, "x = 1\n")

	files, err := NewWalker(nil, nil, 0).Walk(path)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "one.py" || files[0].Path != path {
		t.Errorf("unexpected result %+v", files)
	}
}

func TestWalker_MissingRoot(t *testing.T) {
	if _, err := NewWalker(nil, nil, 0).Walk(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()

	text := filepath.Join(root, "a.txt")
	writeFile(t, text, "héllo")
	got, err := ReadFile(text)
	if err != nil || got != "héllo" {
		t.Errorf("expected héllo, got %q (%v)", got, err)
	}

	latin1 := filepath.Join(root, "b.txt")
	writeFile(t, latin1, "caf\xe9")
	got, err = ReadFile(latin1)
	if err != nil || got != "café" {
		t.Errorf("expected café, got %q (%v)", got, err)
	}

	bin := filepath.Join(root, "c.bin")
	writeFile(t, bin, "ab\x00cd")
	if _, err := ReadFile(bin); !errors.Is(err, ErrBinary) {
		t.Errorf("expected ErrBinary, got %v", err)
	}
}
