package port

import "context"

// OutputShape declares what a caller expects back from a completion.
type OutputShape int

const (
	ShapeText OutputShape = iota
	ShapeJSON
)

func (s OutputShape) String() string {
	if s == ShapeJSON {
		return "json"
	}
	return "text"
}

// Budget is the generation budget hint for one call. MaxTokens wins when set;
// Unbounded requests a budget limited only by the context window.
type Budget struct {
	MaxTokens int
	Unbounded bool
}

// CompletionRequest is a template plus the variables to substitute into it.
type CompletionRequest struct {
	Template string
	Vars     map[string]any
	Shape    OutputShape
	Budget   Budget
}

// LLM executes completion requests and returns a best-effort cleaned string.
// A ShapeJSON request is not guaranteed to return valid JSON.
type LLM interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Probe reports endpoint reachability. It never returns an error.
	Probe(ctx context.Context) bool

	ModelName() string
}
