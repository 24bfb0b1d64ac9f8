package port

import "fraktag/internal/domain"

// ChunkStore persists chunking results for the downstream tree builder.
type ChunkStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	DeleteDoc(id string) error

	ListDocs() ([]domain.Document, error)

	// PutChunks replaces every chunk stored for docID.
	PutChunks(docID string, chunks []domain.Chunk) ([]domain.StoredChunk, error)

	GetChunksByDoc(docID string) ([]domain.StoredChunk, error)

	DeleteChunksByDoc(docID string) error

	PutGist(chunkID, gist string) error

	GetGist(chunkID string) (string, bool, error)

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error

	Close() error
}
