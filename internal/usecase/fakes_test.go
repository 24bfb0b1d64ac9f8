package usecase

import (
	"context"
	"strings"
	"sync"

	"fraktag/internal/domain"
	"fraktag/internal/port"
)

// scriptedLLM answers with reply(req). Safe for concurrent use.
type scriptedLLM struct {
	mu    sync.Mutex
	calls int
	reply func(req port.CompletionRequest) (string, error)
}

func (s *scriptedLLM) Complete(_ context.Context, req port.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.reply(req)
}

func (s *scriptedLLM) Probe(context.Context) bool { return true }
func (s *scriptedLLM) ModelName() string          { return "scripted" }

func (s *scriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func gistReply(req port.CompletionRequest) (string, error) {
	text, _ := req.Vars["text"].(string)
	if strings.Contains(text, "fail") {
		return "", &domain.LLMCallError{Endpoint: "test", Status: 500, Reason: "boom"}
	}
	return "<think>hmm</think>About " + req.Vars["title"].(string) + ".", nil
}
