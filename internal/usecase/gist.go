package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fraktag/internal/domain"
	"fraktag/internal/logging"
	"fraktag/internal/nugget"
	"fraktag/internal/port"
)

// GistUseCase writes a short gist for every stored chunk.
type GistUseCase struct {
	store       port.ChunkStore
	llm         port.LLM
	gist        nugget.Gist
	concurrency int
	logger      logging.Logger

	OnProgress func(done, total int)
}

func NewGistUseCase(store port.ChunkStore, llm port.LLM, concurrency int, logger logging.Logger) *GistUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &GistUseCase{
		store:       store,
		llm:         llm,
		concurrency: concurrency,
		logger:      logger,
	}
}

type GistOptions struct {
	// Force regenerates gists that already exist.
	Force bool
	// Paths limits the run to these document paths. Empty means all.
	Paths []string
}

type GistResult struct {
	Generated int
	Skipped   int
	Failed    int
	Errors    []string
}

// Run generates the missing gists. LLM and parse failures are counted per
// chunk and do not stop the run; cancellation and store failures do.
func (u *GistUseCase) Run(ctx context.Context, opts GistOptions) (*GistResult, error) {
	todo, skipped, err := u.pending(opts)
	if err != nil {
		return nil, err
	}
	result := &GistResult{Skipped: skipped}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, c := range todo {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := nugget.Run[nugget.GistInput, string](gctx, u.llm, u.gist, nugget.GistInput{
				Title: title(c.Chunk),
				Text:  c.Chunk.Text,
			})
			if err == nil {
				err = u.store.PutGist(c.ID, text)
				if err != nil {
					return fmt.Errorf("failed to store gist for %s: %w", c.ID, err)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if u.OnProgress != nil {
				u.OnProgress(done, len(todo))
			}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				u.logger.Warn("gist failed", "chunk", c.ID, "error", err)
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.ID, err))
				return nil
			}
			result.Generated++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func (u *GistUseCase) pending(opts GistOptions) ([]domain.StoredChunk, int, error) {
	docs, err := u.store.ListDocs()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list docs: %w", err)
	}
	want := make(map[string]bool, len(opts.Paths))
	for _, p := range opts.Paths {
		want[p] = true
	}

	var (
		todo    []domain.StoredChunk
		skipped int
	)
	for _, doc := range docs {
		if len(want) > 0 && !want[doc.Path] {
			continue
		}
		chunks, err := u.store.GetChunksByDoc(doc.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load chunks of %s: %w", doc.Path, err)
		}
		for _, c := range chunks {
			if !opts.Force {
				if _, ok, err := u.store.GetGist(c.ID); err != nil {
					return nil, 0, err
				} else if ok {
					skipped++
					continue
				}
			}
			todo = append(todo, c)
		}
	}
	return todo, skipped, nil
}

func title(c domain.Chunk) string {
	if t, ok := c.Metadata[domain.MetaTitle].(string); ok {
		return t
	}
	return ""
}

func isParseError(err error) bool {
	return errors.Is(err, domain.ErrOutputParse)
}
