package llm

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3"

	EndpointGenerate = "/api/generate"
	EndpointTags     = "/api/tags"

	DefaultTemperature = 0.1
	DefaultContextSize = 32768
	DefaultMaxTokens   = 4096
)

// GenerateRequest is the body of a streaming generate call.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
	NumPredict  int     `json:"num_predict"`
}

// StreamRecord is one newline-delimited object of a generate stream. Either
// field may be absent.
type StreamRecord struct {
	Response string `json:"response,omitempty"`
	Done     bool   `json:"done,omitempty"`
}
