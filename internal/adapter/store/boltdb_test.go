package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fraktag/config"
	"fraktag/internal/domain"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStore_Docs(t *testing.T) {
	s := openTestStore(t)
	mod := time.Unix(1700000000, 123)

	for _, doc := range []domain.Document{
		{ID: "b", Path: "z.md", ModTime: mod, Strategy: "recursive", Runes: 10},
		{ID: "a", Path: "a.md", ModTime: mod, Strategy: "fixed-512", Runes: 20},
	} {
		if err := s.PutDoc(doc); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetDoc("a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "a.md" || got.Strategy != "fixed-512" || got.Runes != 20 || !got.ModTime.Equal(mod) {
		t.Errorf("unexpected doc: %+v", got)
	}

	docs, err := s.ListDocs()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Path != "a.md" || docs[1].Path != "z.md" {
		t.Errorf("expected docs ordered by path, got %+v", docs)
	}

	if err := s.DeleteDoc("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDoc("a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoltStore_Chunks(t *testing.T) {
	s := openTestStore(t)

	chunks := []domain.Chunk{
		{Text: "one", Start: 0, End: 3, Metadata: map[string]any{domain.MetaTitle: "Intro", domain.MetaHeaderLevel: 2}},
		{Text: "two", Start: 4, End: 7},
	}
	stored, err := s.PutChunks("doc", chunks)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 || stored[1].ID != ChunkID("doc", 1) {
		t.Fatalf("unexpected stored chunks: %+v", stored)
	}

	got, err := s.GetChunksByDoc("doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].Chunk.Text != "one" || got[1].Chunk.Start != 4 || got[1].Chunk.End != 7 {
		t.Errorf("unexpected chunks: %+v", got)
	}
	if level, ok := got[0].Chunk.Metadata[domain.MetaHeaderLevel].(int); !ok || level != 2 {
		t.Errorf("expected int header level 2, got %#v", got[0].Chunk.Metadata[domain.MetaHeaderLevel])
	}

	// replacing drops the old chunks and their gists
	if err := s.PutGist(got[1].ID, "gist"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutChunks("doc", chunks[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetChunksByDoc("doc")
	if len(got) != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", len(got))
	}
	if _, ok, _ := s.GetGist(ChunkID("doc", 1)); ok {
		t.Error("expected gist of replaced chunk to be gone")
	}

	if err := s.DeleteChunksByDoc("doc"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetChunksByDoc("doc")
	if len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}

func TestBoltStore_Gists(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutGist("missing:0000", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown chunk, got %v", err)
	}

	stored, err := s.PutChunks("doc", []domain.Chunk{{Text: "t", End: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetGist(stored[0].ID); ok {
		t.Error("expected no gist yet")
	}
	if err := s.PutGist(stored[0].ID, "short summary"); err != nil {
		t.Fatal(err)
	}
	gist, ok, err := s.GetGist(stored[0].ID)
	if err != nil || !ok || gist != "short summary" {
		t.Errorf("unexpected gist %q ok=%v err=%v", gist, ok, err)
	}
}

func TestBoltStore_Stats(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocs != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	want := domain.Stats{TotalDocs: 2, TotalChunks: 5, TotalTokens: 100, AvgTokensPerChunk: 20}
	if err := s.UpdateStats(want); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetStats()
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestBoltStore_Migration(t *testing.T) {
	s := openTestStore(t)
	cfg := config.DefaultConfig()

	res, err := s.CheckMigration(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NeedsMigration || res.NeedsRebuild {
		t.Errorf("fresh store should need migration only: %+v", res)
	}

	if err := s.Migrate(cfg); err != nil {
		t.Fatal(err)
	}
	rebuild, _, err := s.NeedsRebuild(cfg)
	if err != nil || rebuild {
		t.Errorf("expected no rebuild after migrate, got %v (%v)", rebuild, err)
	}

	changed := config.DefaultConfig()
	changed.Chunking.Options.MaxChars = domain.Chars(800)
	rebuild, reason, _ := s.NeedsRebuild(changed)
	if !rebuild || reason == "" {
		t.Errorf("expected rebuild after chunking change, got %v %q", rebuild, reason)
	}

	changed = config.DefaultConfig()
	changed.LLM.Model = "other"
	if rebuild, _, _ := s.NeedsRebuild(changed); rebuild {
		t.Error("llm settings must not force a rebuild")
	}
}

func TestBoltStore_Clear(t *testing.T) {
	s := openTestStore(t)
	cfg := config.DefaultConfig()
	if err := s.Migrate(cfg); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDoc(domain.Document{ID: "d", Path: "d.md"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutChunks("d", []domain.Chunk{{Text: "x", End: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStats(domain.Stats{TotalDocs: 1}); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	docs, _ := s.ListDocs()
	chunks, _ := s.GetChunksByDoc("d")
	stats, _ := s.GetStats()
	if len(docs) != 0 || len(chunks) != 0 || stats.TotalDocs != 0 {
		t.Errorf("expected empty store, got %d docs %d chunks %+v", len(docs), len(chunks), stats)
	}
	info, _ := s.GetSchemaInfo()
	if info.Version != CurrentSchemaVersion || info.ConfigHash == "" {
		t.Errorf("schema info should survive clear: %+v", info)
	}
}
