package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/adapter/fs"
	"fraktag/internal/adapter/memstore"
	"fraktag/internal/adapter/store"
	"fraktag/internal/domain"
	"fraktag/internal/port"
)

const twoSections = "## Setup\nInstall the tool.\n\n## Usage\nRun the tool.\n"

func newIngest(t *testing.T, st port.ChunkStore) *IngestUseCase {
	t.Helper()
	strategy, err := chunker.New(domain.StrategyRecursive)
	if err != nil {
		t.Fatal(err)
	}
	opts := domain.DefaultChunkingOptions()
	opts.MinChunkChars = domain.Chars(1)
	walker := fs.NewWalker([]string{"**/*.md"}, []string{"**/.fraktag/**"})
	return NewIngestUseCase(st, walker, fs.Reader{}, strategy, opts, 2, nil, nil)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIngest_Incremental(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.md")
	b := filepath.Join(root, "b.md")
	write(t, a, twoSections)
	write(t, b, "plain text without structure")
	write(t, filepath.Join(root, "ignored.txt"), "not markdown")

	st := memstore.NewMemoryStore()
	uc := newIngest(t, st)
	ctx := context.Background()

	var progress int
	uc.OnProgress = func(done, total int) {
		progress = done
		if total != 2 {
			t.Errorf("expected total=2, got %d", total)
		}
	}

	res, err := uc.Ingest(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesChunked != 2 || res.ChunksCreated != 3 || len(res.Errors) != 0 {
		t.Errorf("first run: unexpected result %+v", res)
	}
	if progress != 2 {
		t.Errorf("expected progress to reach 2, got %d", progress)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}
	uc.OnProgress = nil

	chunks, _ := st.GetChunksByDoc(DocID(a))
	if len(chunks) != 2 || chunks[0].Chunk.Metadata[domain.MetaTitle] != "Setup" {
		t.Errorf("unexpected chunks for a.md: %+v", chunks)
	}
	doc, err := st.GetDoc(DocID(a))
	if err != nil || doc.Strategy != "recursive" || doc.Runes != len([]rune(twoSections)) {
		t.Errorf("unexpected doc %+v (%v)", doc, err)
	}

	res, err = uc.Ingest(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesSkipped != 2 || res.FilesChunked != 0 {
		t.Errorf("second run should skip everything: %+v", res)
	}

	later := time.Now().Add(time.Hour)
	write(t, a, twoSections+"\n## Extra\nMore.\n")
	if err := os.Chtimes(a, later, later); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}

	res, err = uc.Ingest(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesChunked != 1 || res.FilesDeleted != 1 || res.ChunksCreated != 3 {
		t.Errorf("third run: unexpected result %+v", res)
	}
	if _, err := st.GetDoc(DocID(b)); err == nil {
		t.Error("expected b.md to be removed")
	}

	stats, _ := st.GetStats()
	if stats.TotalDocs != 1 || stats.TotalChunks != 3 || stats.TotalTokens == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestIngest_CollectsFileErrors(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "good.md"), twoSections)
	write(t, filepath.Join(root, "bad.md"), "bad \xff bytes")

	res, err := newIngest(t, memstore.NewMemoryStore()).Ingest(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesChunked != 1 || len(res.Errors) != 1 {
		t.Errorf("expected one success and one error, got %+v", res)
	}
}

func TestIngest_StrategyChangeRechunks(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.md"), twoSections)
	st := memstore.NewMemoryStore()

	if _, err := newIngest(t, st).Ingest(context.Background(), root); err != nil {
		t.Fatal(err)
	}

	fixed, err := chunker.New(domain.StrategyFixed512)
	if err != nil {
		t.Fatal(err)
	}
	opts := domain.ChunkingOptions{MaxChars: domain.Chars(20), OverlapChars: domain.Chars(0), MinChunkChars: domain.Chars(1)}
	uc := NewIngestUseCase(st, fs.NewWalker([]string{"**/*.md"}, nil), fs.Reader{}, fixed, opts, 1, nil, nil)
	res, err := uc.Ingest(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesChunked != 1 || res.FilesSkipped != 0 {
		t.Errorf("expected re-chunk after strategy change, got %+v", res)
	}
}

func TestIngest_SingleFileAndBoltStore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.md")
	write(t, path, twoSections)

	st, err := store.NewBoltStore(filepath.Join(root, "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	uc := newIngest(t, st)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := uc.IngestFile(context.Background(), port.FileInfo{Path: path, ModTime: info.ModTime().UnixNano(), Size: info.Size()})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 chunks, got %d", n)
	}

	chunks, _ := st.GetChunksByDoc(DocID(path))
	for _, c := range chunks {
		if got := string([]rune(twoSections)[c.Chunk.Start:c.Chunk.End]); got != c.Chunk.Text {
			t.Errorf("offsets do not address text: %q vs %q", got, c.Chunk.Text)
		}
	}

	if err := uc.RemoveFile(path); err != nil {
		t.Fatal(err)
	}
	stats, _ := st.GetStats()
	if stats.TotalDocs != 0 || stats.TotalChunks != 0 {
		t.Errorf("expected empty stats after remove, got %+v", stats)
	}
}

func TestDocID_Stable(t *testing.T) {
	if DocID("/a/b.md") != DocID("/a/b.md") {
		t.Error("DocID must be deterministic")
	}
	if DocID("/a/b.md") == DocID("/a/c.md") {
		t.Error("DocID must differ per path")
	}
}
