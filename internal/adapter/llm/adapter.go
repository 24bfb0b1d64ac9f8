// Package llm talks to an Ollama-compatible completion endpoint. Every call
// streams newline-delimited JSON records, accumulates the text fragments and
// returns the cleaned result.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"fraktag/internal/adapter/extract"
	"fraktag/internal/adapter/prompt"
	"fraktag/internal/domain"
	"fraktag/internal/logging"
	"fraktag/internal/port"
	"fraktag/internal/tracing"
)

// Adapter implements port.LLM. It holds no per-call state, so one Adapter
// may serve concurrent calls.
type Adapter struct {
	baseURL     string
	model       string
	temperature float64
	numCtx      int
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client
	logger      logging.Logger
	tracer      *tracing.Tracer
}

type Option func(*Adapter)

func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimRight(url, "/")
	}
}

func WithModel(model string) Option {
	return func(a *Adapter) {
		a.model = model
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithTimeout bounds a whole call, stream included. It is applied per call
// through the request context and never touches the HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = timeout
	}
}

func WithTemperature(t float64) Option {
	return func(a *Adapter) {
		a.temperature = t
	}
}

// WithContextSize sets num_ctx, which is also the budget of unbounded calls.
func WithContextSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.numCtx = n
		}
	}
}

// WithDefaultMaxTokens sets num_predict for calls without an explicit budget.
func WithDefaultMaxTokens(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

func WithTracer(t *tracing.Tracer) Option {
	return func(a *Adapter) {
		a.tracer = t
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		numCtx:      DefaultContextSize,
		maxTokens:   DefaultMaxTokens,
		httpClient:  &http.Client{},
		logger:      logging.Discard(),
		tracer:      tracing.Noop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ModelName() string { return a.model }

// numPredict resolves the generation budget: an explicit limit wins, then
// an unbounded request gets the whole context window, else the default cap.
func (a *Adapter) numPredict(b port.Budget) int {
	switch {
	case b.MaxTokens > 0:
		return b.MaxTokens
	case b.Unbounded:
		return a.numCtx
	default:
		return a.maxTokens
	}
}

// Complete renders the request, streams the completion and post-processes the
// accumulated text for req.Shape. Transport errors are returned as is; HTTP
// failures are *domain.LLMCallError.
func (a *Adapter) Complete(ctx context.Context, req port.CompletionRequest) (result string, err error) {
	text := prompt.Render(req.Template, req.Vars)
	predict := a.numPredict(req.Budget)
	id := uuid.NewString()

	ctx, span := a.tracer.Start(ctx, "llm.complete",
		attribute.String("llm.model", a.model),
		attribute.String("llm.invocation_id", id),
		attribute.String("llm.shape", req.Shape.String()),
		attribute.Int("llm.num_predict", predict),
	)
	defer func() {
		span.SetAttributes(attribute.Int("llm.response_bytes", len(result)))
		tracing.End(span, err)
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	log := a.logger.With("invocation", id, "model", a.model)
	log.Debug("llm call", "prompt_chars", len(text), "num_predict", predict, "shape", req.Shape)

	body, err := json.Marshal(GenerateRequest{
		Model:  a.model,
		Prompt: text,
		Stream: true,
		Options: GenerateOptions{
			Temperature: a.temperature,
			NumCtx:      a.numCtx,
			NumPredict:  predict,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := a.baseURL + EndpointGenerate
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", parseError(endpoint, resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return "", &domain.LLMCallError{Endpoint: endpoint, Status: resp.StatusCode, Reason: "response has no body"}
	}

	raw, err := a.readStream(ctx, resp.Body, log)
	if err != nil {
		return "", err
	}

	out := extract.ForShape(raw, req.Shape == port.ShapeJSON)
	if req.Shape == port.ShapeJSON && !json.Valid([]byte(out)) {
		log.Warn("no JSON payload in response, returning prose", "raw_chars", len(raw))
	}
	log.Debug("llm call done", "raw_chars", len(raw), "chars", len(out))
	return out, nil
}

// readStream accumulates the response fragments of an NDJSON stream until a
// done record or EOF. Records split across reads are buffered by the reader;
// malformed records are skipped.
func (a *Adapter) readStream(ctx context.Context, r io.Reader, log logging.Logger) (string, error) {
	var acc strings.Builder
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("reading stream: %w", readErr)
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec StreamRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				log.Warn("skipping malformed stream record", "error", err, "bytes", len(line))
			} else {
				acc.WriteString(rec.Response)
				if rec.Done {
					return acc.String(), nil
				}
			}
		}

		if readErr != nil {
			return acc.String(), nil
		}
	}
}

// Probe issues a GET against the tags endpoint. Any failure reads as false.
func (a *Adapter) Probe(ctx context.Context) bool {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+EndpointTags, nil)
	if err != nil {
		return false
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode/100 == 2
}

func parseError(endpoint string, resp *http.Response) error {
	reason := resp.Status
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		reason = payload.Error
	} else if s := strings.TrimSpace(string(body)); s != "" {
		reason = s
	}
	return &domain.LLMCallError{Endpoint: endpoint, Status: resp.StatusCode, Reason: reason}
}

var _ port.LLM = (*Adapter)(nil)
