package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrValidation          = errors.New("validation failed")
	ErrUnsupportedStrategy = errors.New("unsupported chunking strategy")
	ErrLLMCall             = errors.New("llm call failed")
	ErrOutputParse         = errors.New("nugget output could not be parsed")
	ErrNotFound            = errors.New("not found")
)

// ValidationError reports malformed or missing chunking input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnsupportedStrategyError is returned for unknown identifiers and for the
// reserved ones that are withheld on purpose.
type UnsupportedStrategyError struct {
	Strategy string
	Reserved bool
}

func (e *UnsupportedStrategyError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("chunking strategy %q is deliberately not implemented: it produced empirically poor retrieval accuracy in evaluation; use %q, %q or %q",
			e.Strategy, StrategyRecursive, StrategyFixed512, StrategyFixed1024)
	}
	return fmt.Sprintf("unknown chunking strategy %q (known: %s, %s, %s)",
		e.Strategy, StrategyRecursive, StrategyFixed512, StrategyFixed1024)
}

func (e *UnsupportedStrategyError) Is(target error) bool { return target == ErrUnsupportedStrategy }

// LLMCallError carries the endpoint status when a completion request fails at
// the HTTP level. Callers decide whether to retry.
type LLMCallError struct {
	Endpoint string
	Status   int
	Reason   string
}

func (e *LLMCallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("llm call to %s failed: %s", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("llm call to %s failed: status %d: %s", e.Endpoint, e.Status, e.Reason)
}

func (e *LLMCallError) Is(target error) bool { return target == ErrLLMCall }

// OutputParseError names the nugget whose output could not be coerced into
// its declared shape.
type OutputParseError struct {
	Nugget string
	Raw    string
	Cause  error
}

func (e *OutputParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("nugget %s: unparseable output", e.Nugget)
	}
	return fmt.Sprintf("nugget %s: unparseable output: %v", e.Nugget, e.Cause)
}

func (e *OutputParseError) Unwrap() error { return e.Cause }

func (e *OutputParseError) Is(target error) bool { return target == ErrOutputParse }
