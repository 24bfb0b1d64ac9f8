package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# hi")
	writeFile(t, root, "docs/guide.md", "guide")
	writeFile(t, root, "docs/notes.txt", "notes")
	writeFile(t, root, "docs/image.png", "png")
	writeFile(t, root, "node_modules/pkg/README.md", "vendored")

	w := NewWalker([]string{"**/*.md", "**/*.txt"}, []string{"**/node_modules/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		got = append(got, filepath.ToSlash(rel))
		if f.ModTime == 0 || f.Size == 0 {
			t.Errorf("missing file info for %s: %+v", rel, f)
		}
	}
	want := []string{"README.md", "docs/guide.md", "docs/notes.txt"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestWalker_Match(t *testing.T) {
	w := NewWalker(nil, []string{"**/.git/**"})

	tests := []struct {
		path string
		want bool
	}{
		{"a.md", true},
		{"deep/dir/b.txt", true},
		{".git/HEAD", false},
		{"sub/.git/config", false},
	}
	for _, tt := range tests {
		if got := w.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReader_ReadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "héllo")

	got, err := Reader{}.ReadFile(filepath.Join(root, "a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "héllo" {
		t.Errorf("expected héllo, got %q", got)
	}
	if _, err := (Reader{}).ReadFile(filepath.Join(root, "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}
