// Package nugget defines typed, template-driven model interactions. A Nugget
// turns its input into prompt variables, and parses the model's reply into
// its output type. Run ties both ends to a port.LLM.
package nugget

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fraktag/internal/adapter/prompt"
	"fraktag/internal/domain"
	"fraktag/internal/port"
	"fraktag/internal/tracing"
)

// Definition is the static part of a nugget. Shape and Budget travel with
// every request so the adapter never has to guess them from prompt text.
type Definition struct {
	Name     string
	Template string
	Shape    port.OutputShape
	Budget   port.Budget
}

// Nugget is a typed unit of model interaction. PrepareVariables must be pure.
// ParseOutput must accept any string and report failures as
// *domain.OutputParseError.
type Nugget[In, Out any] interface {
	Definition() Definition
	PrepareVariables(in In) prompt.Vars
	ParseOutput(raw string) (Out, error)
}

// Render returns the prompt that Run would send for in.
func Render[In, Out any](n Nugget[In, Out], in In) string {
	return prompt.Render(n.Definition().Template, n.PrepareVariables(in))
}

// Run renders in through n, completes it on llm and parses the reply. Errors
// from llm are returned unchanged.
func Run[In, Out any](ctx context.Context, llm port.LLM, n Nugget[In, Out], in In) (Out, error) {
	def := n.Definition()
	ctx, span := otel.Tracer(tracing.TracerName).Start(ctx, "nugget.run")
	span.SetAttributes(
		attribute.String("nugget.name", def.Name),
		attribute.String("nugget.shape", def.Shape.String()),
	)

	var zero Out
	raw, err := llm.Complete(ctx, port.CompletionRequest{
		Template: def.Template,
		Vars:     n.PrepareVariables(in),
		Shape:    def.Shape,
		Budget:   def.Budget,
	})
	if err != nil {
		tracing.End(span, err)
		return zero, err
	}

	out, err := n.ParseOutput(raw)
	if err != nil {
		var parseErr *domain.OutputParseError
		if !errors.As(err, &parseErr) {
			err = &domain.OutputParseError{Nugget: def.Name, Raw: raw, Cause: err}
		}
		tracing.End(span, err)
		return zero, err
	}
	tracing.End(span, nil)
	return out, nil
}
