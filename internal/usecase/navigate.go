package usecase

import (
	"context"
	"fmt"
	"strings"

	"fraktag/internal/domain"
	"fraktag/internal/logging"
	"fraktag/internal/nugget"
	"fraktag/internal/port"
)

// DefaultBatchSize is how many candidates one relevance call judges.
const DefaultBatchSize = 20

// Hit is a stored chunk the model judged relevant to a query.
type Hit struct {
	Path  string
	Chunk domain.StoredChunk
	Gist  string
}

// NavigateUseCase finds the stored chunks that bear on a question by showing
// the model their titles and gists, a batch at a time.
type NavigateUseCase struct {
	store     port.ChunkStore
	llm       port.LLM
	batchSize int
	logger    logging.Logger
}

func NewNavigateUseCase(store port.ChunkStore, llm port.LLM, batchSize int, logger logging.Logger) *NavigateUseCase {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &NavigateUseCase{store: store, llm: llm, batchSize: batchSize, logger: logger}
}

// Navigate returns the relevant chunks in store order. Chunks without a gist
// are shown by the start of their text. A batch whose answer cannot be
// parsed is skipped with a warning; LLM call errors abort.
func (u *NavigateUseCase) Navigate(ctx context.Context, query string) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	all, err := u.candidates()
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for start := 0; start < len(all); start += u.batchSize {
		batch := all[start:min(start+u.batchSize, len(all))]
		in := nugget.RelevanceInput{Query: query, Candidates: make([]nugget.Candidate, len(batch))}
		for i, h := range batch {
			in.Candidates[i] = nugget.Candidate{Title: title(h.Chunk.Chunk), Gist: h.Gist}
		}

		verdict, err := nugget.Run[nugget.RelevanceInput, nugget.Verdict](ctx, u.llm, nugget.Relevance{}, in)
		if err != nil {
			if isParseError(err) {
				u.logger.Warn("skipping batch with unparseable verdict", "offset", start, "error", err)
				continue
			}
			return nil, err
		}
		picked := make(map[int]bool, len(verdict.Relevant))
		for _, i := range verdict.Relevant {
			if i < len(batch) {
				picked[i] = true
			}
		}
		for i, h := range batch {
			if picked[i] {
				hits = append(hits, h)
			}
		}
	}
	return hits, nil
}

func (u *NavigateUseCase) candidates() ([]Hit, error) {
	docs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list docs: %w", err)
	}
	var out []Hit
	for _, doc := range docs {
		chunks, err := u.store.GetChunksByDoc(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunks of %s: %w", doc.Path, err)
		}
		for _, c := range chunks {
			gist, ok, err := u.store.GetGist(c.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				gist = preview(c.Chunk.Text, 200)
			}
			out = append(out, Hit{Path: doc.Path, Chunk: c, Gist: gist})
		}
	}
	return out, nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
