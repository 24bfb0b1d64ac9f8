package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/domain"
	"fraktag/internal/logging"
	"fraktag/internal/port"
	"fraktag/internal/tracing"
)

// IngestUseCase chunks the documents under a root and keeps the store in
// step with the files on disk.
type IngestUseCase struct {
	store    port.ChunkStore
	walker   port.FileWalker
	reader   port.FileReader
	strategy port.ChunkingStrategy
	opts     domain.ChunkingOptions
	workers  int
	logger   logging.Logger
	tracer   *tracing.Tracer

	// OnProgress, when set, is called after each file is handled.
	OnProgress func(done, total int)
}

func NewIngestUseCase(
	store port.ChunkStore,
	walker port.FileWalker,
	reader port.FileReader,
	strategy port.ChunkingStrategy,
	opts domain.ChunkingOptions,
	workers int,
	logger logging.Logger,
	tracer *tracing.Tracer,
) *IngestUseCase {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &IngestUseCase{
		store:    store,
		walker:   walker,
		reader:   reader,
		strategy: strategy,
		opts:     opts,
		workers:  workers,
		logger:   logger,
		tracer:   tracer,
	}
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	RunID         string
	FilesChunked  int
	FilesSkipped  int
	FilesDeleted  int
	ChunksCreated int
	Errors        []string
}

// Ingest walks root, re-chunks new or modified files and drops documents
// whose files are gone. A file is unchanged when its mtime and the strategy
// that chunked it both match. Per-file failures are collected in the result;
// only store-level failures abort the run.
func (u *IngestUseCase) Ingest(ctx context.Context, root string) (*IngestResult, error) {
	result := &IngestResult{RunID: uuid.NewString()}
	log := u.logger.With("run", result.RunID)

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existing := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existing[doc.Path] = doc
	}

	var (
		mu   sync.Mutex
		done int
	)
	record := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
		done++
		if u.OnProgress != nil {
			u.OnProgress(done, len(files))
		}
	}

	seen := make(map[string]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for _, file := range files {
		seen[file.Path] = true
		if doc, ok := existing[file.Path]; ok && u.unchanged(doc, file) {
			record(func() { result.FilesSkipped++ })
			continue
		}

		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := u.ingestFile(gctx, file)
			record(func() {
				if err != nil {
					log.Warn("failed to ingest file", "path", file.Path, "error", err)
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
					return
				}
				result.FilesChunked++
				result.ChunksCreated += n
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for path, doc := range existing {
		if seen[path] {
			continue
		}
		if err := u.removeDoc(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		result.FilesDeleted++
	}

	if _, err := u.RefreshStats(); err != nil {
		return nil, err
	}
	log.Info("ingest finished",
		"chunked", result.FilesChunked,
		"skipped", result.FilesSkipped,
		"deleted", result.FilesDeleted,
		"chunks", result.ChunksCreated,
		"errors", len(result.Errors))
	return result, nil
}

func (u *IngestUseCase) unchanged(doc domain.Document, file port.FileInfo) bool {
	return doc.Strategy == u.strategy.Name() && doc.ModTime.UnixNano() >= file.ModTime
}

// IngestFile chunks a single file and replaces its stored chunks.
func (u *IngestUseCase) IngestFile(ctx context.Context, file port.FileInfo) (int, error) {
	n, err := u.ingestFile(ctx, file)
	if err != nil {
		return 0, err
	}
	if _, err := u.RefreshStats(); err != nil {
		return n, err
	}
	return n, nil
}

// RemoveFile drops the document stored for path, if any.
func (u *IngestUseCase) RemoveFile(path string) error {
	if err := u.removeDoc(DocID(path)); err != nil {
		return err
	}
	_, err := u.RefreshStats()
	return err
}

func (u *IngestUseCase) ingestFile(ctx context.Context, file port.FileInfo) (n int, err error) {
	_, span := u.tracer.Start(ctx, "ingest.document",
		attribute.String("path", file.Path),
		attribute.String("strategy", u.strategy.Name()),
	)
	defer func() {
		span.SetAttributes(attribute.Int("chunks", n))
		tracing.End(span, err)
	}()

	content, err := u.reader.ReadFile(file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	res, err := chunker.Run(u.strategy, content, u.opts)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk content: %w", err)
	}

	doc := domain.Document{
		ID:       DocID(file.Path),
		Path:     file.Path,
		ModTime:  time.Unix(0, file.ModTime),
		Strategy: res.Strategy,
		Runes:    utf8.RuneCountInString(content),
	}
	if _, err := u.store.PutChunks(doc.ID, res.Chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := u.store.PutDoc(doc); err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	return len(res.Chunks), nil
}

func (u *IngestUseCase) removeDoc(docID string) error {
	if err := u.store.DeleteChunksByDoc(docID); err != nil {
		return err
	}
	return u.store.DeleteDoc(docID)
}

// RefreshStats recomputes corpus statistics from the stored chunks.
func (u *IngestUseCase) RefreshStats() (domain.Stats, error) {
	stats, err := ComputeStats(u.store, u.strategy.EstimateTokens)
	if err != nil {
		return stats, err
	}
	if err := u.store.UpdateStats(stats); err != nil {
		return stats, fmt.Errorf("failed to update stats: %w", err)
	}
	return stats, nil
}

// ComputeStats totals documents, chunks and estimated tokens in store.
func ComputeStats(store port.ChunkStore, estimate func(string) int) (domain.Stats, error) {
	docs, err := store.ListDocs()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to list docs: %w", err)
	}
	stats := domain.Stats{TotalDocs: len(docs)}
	for _, doc := range docs {
		chunks, err := store.GetChunksByDoc(doc.ID)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("failed to load chunks of %s: %w", doc.Path, err)
		}
		for _, c := range chunks {
			stats.TotalChunks++
			stats.TotalTokens += estimate(c.Chunk.Text)
		}
	}
	if stats.TotalChunks > 0 {
		stats.AvgTokensPerChunk = float64(stats.TotalTokens) / float64(stats.TotalChunks)
	}
	return stats, nil
}

// DocID derives a stable document id from its path.
func DocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
