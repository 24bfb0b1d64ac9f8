package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"fraktag/internal/domain"
	"fraktag/internal/port"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketBlobs     = []byte("blobs")
	bucketDocChunks = []byte("doc_chunks")
	bucketGists     = []byte("gists")
	bucketStats     = []byte("stats")
	keyStats        = []byte("corpus_stats")

	allBuckets = [][]byte{bucketDocs, bucketChunks, bucketBlobs, bucketDocChunks, bucketGists, bucketStats}
)

// BoltStore is a port.ChunkStore backed by a single bbolt file. Chunk text
// lives in its own bucket so listing metadata never loads it.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Path     string `json:"path"`
	ModTime  int64  `json:"mod_time"`
	Strategy string `json:"strategy"`
	Runes    int    `json:"runes"`
}

type chunkMeta struct {
	DocID    string         `json:"doc_id"`
	Index    int            `json:"index"`
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (m docMeta) document(id string) domain.Document {
	return domain.Document{
		ID:       id,
		Path:     m.Path,
		ModTime:  time.Unix(0, m.ModTime),
		Strategy: m.Strategy,
		Runes:    m.Runes,
	}
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(docMeta{
			Path:     doc.Path,
			ModTime:  doc.ModTime.UnixNano(),
			Strategy: doc.Strategy,
			Runes:    doc.Runes,
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = meta.document(id)
		return nil
	})
	return doc, err
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

// ListDocs returns documents ordered by path.
func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, meta.document(string(k)))
			return nil
		})
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, err
}

// ChunkID is the stored identifier of the index-th chunk of docID.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%04d", docID, index)
}

func (s *BoltStore) PutChunks(docID string, chunks []domain.Chunk) ([]domain.StoredChunk, error) {
	stored := make([]domain.StoredChunk, len(chunks))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteChunks(tx, docID); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			id := ChunkID(docID, i)
			data, err := json.Marshal(chunkMeta{
				DocID:    docID,
				Index:    i,
				Start:    c.Start,
				End:      c.End,
				Metadata: c.Metadata,
			})
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(id), data); err != nil {
				return err
			}
			if err := blobBucket.Put([]byte(id), []byte(c.Text)); err != nil {
				return err
			}
			ids[i] = id
			stored[i] = domain.StoredChunk{ID: id, DocID: docID, Index: i, Chunk: c}
		}

		idsData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocChunks).Put([]byte(docID), idsData)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.StoredChunk, error) {
	var chunks []domain.StoredChunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids, err := chunkIDs(tx, docID)
		if err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range ids {
			data := chunkBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return fmt.Errorf("chunk %s: %w", id, err)
			}
			chunks = append(chunks, domain.StoredChunk{
				ID:    id,
				DocID: meta.DocID,
				Index: meta.Index,
				Chunk: domain.Chunk{
					Text:     string(blobBucket.Get([]byte(id))),
					Start:    meta.Start,
					End:      meta.End,
					Metadata: normalizeMeta(meta.Metadata),
				},
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) DeleteChunksByDoc(docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunks(tx, docID)
	})
}

func (s *BoltStore) PutGist(chunkID, gist string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChunks).Get([]byte(chunkID)) == nil {
			return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
		}
		return tx.Bucket(bucketGists).Put([]byte(chunkID), []byte(gist))
	})
}

func (s *BoltStore) GetGist(chunkID string) (string, bool, error) {
	var (
		gist string
		ok   bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketGists).Get([]byte(chunkID)); v != nil {
			gist, ok = string(v), true
		}
		return nil
	})
	return gist, ok, err
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func chunkIDs(tx *bbolt.Tx, docID string) ([]string, error) {
	data := tx.Bucket(bucketDocChunks).Get([]byte(docID))
	if data == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("chunk list for %s: %w", docID, err)
	}
	return ids, nil
}

// deleteChunks removes the chunks of docID together with their text and gists.
func deleteChunks(tx *bbolt.Tx, docID string) error {
	ids, err := chunkIDs(tx, docID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		for _, name := range [][]byte{bucketChunks, bucketBlobs, bucketGists} {
			if err := tx.Bucket(name).Delete([]byte(id)); err != nil {
				return err
			}
		}
	}
	return tx.Bucket(bucketDocChunks).Delete([]byte(docID))
}

// normalizeMeta turns the float64 values JSON decoding yields for integral
// numbers back into ints, so stored metadata reads like fresh chunker output.
func normalizeMeta(m map[string]any) map[string]any {
	for k, v := range m {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			m[k] = int(f)
		}
	}
	return m
}

var _ port.ChunkStore = (*BoltStore)(nil)
