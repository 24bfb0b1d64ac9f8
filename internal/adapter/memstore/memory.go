// Package memstore is an in-memory port.ChunkStore for tests and one-shot
// runs that do not need persistence.
package memstore

import (
	"fmt"
	"sort"
	"sync"

	"fraktag/internal/domain"
	"fraktag/internal/port"
)

type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.Document
	chunks    map[string]domain.StoredChunk
	docChunks map[string][]string
	gists     map[string]string
	stats     domain.Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]domain.Document),
		chunks:    make(map[string]domain.StoredChunk),
		docChunks: make(map[string][]string),
		gists:     make(map[string]string),
	}
}

func (s *MemoryStore) PutDoc(doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) GetDoc(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) DeleteDoc(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) ListDocs() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (s *MemoryStore) PutChunks(docID string, chunks []domain.Chunk) ([]domain.StoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteChunksLocked(docID)

	stored := make([]domain.StoredChunk, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("%s:%04d", docID, i)
		stored[i] = domain.StoredChunk{ID: id, DocID: docID, Index: i, Chunk: c}
		s.chunks[id] = stored[i]
		ids[i] = id
	}
	s.docChunks[docID] = ids
	return stored, nil
}

func (s *MemoryStore) GetChunksByDoc(docID string) ([]domain.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.docChunks[docID]
	out := make([]domain.StoredChunk, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.chunks[id])
	}
	return out, nil
}

func (s *MemoryStore) DeleteChunksByDoc(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteChunksLocked(docID)
	return nil
}

func (s *MemoryStore) deleteChunksLocked(docID string) {
	for _, id := range s.docChunks[docID] {
		delete(s.chunks, id)
		delete(s.gists, id)
	}
	delete(s.docChunks, docID)
}

func (s *MemoryStore) PutGist(chunkID, gist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[chunkID]; !ok {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	s.gists[chunkID] = gist
	return nil
}

func (s *MemoryStore) GetGist(chunkID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gists[chunkID]
	return g, ok, nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) UpdateStats(stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.ChunkStore = (*MemoryStore)(nil)
