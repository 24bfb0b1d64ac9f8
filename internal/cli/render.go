package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fraktag/internal/adapter/prompt"
	"fraktag/internal/port"
)

var (
	renderTemplate string
	renderVars     []string
	renderVarFiles []string
	renderRun      bool
	renderJSON     bool
	renderMax      int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fill a prompt template, optionally sending it to the model",
	Long: `Substitute variables into a {{name}} template and print the prompt.
Repeating --var with the same name builds a list, joined with newlines.
Placeholders without a value are left in place and reported.

With --run the prompt is sent to the configured endpoint and the cleaned
completion is printed instead.

Examples:
  fraktag render -t prompt.txt --var topic=cats --var item=a --var item=b
  fraktag render -t summarize.txt --var-file text=chapter1.txt --run
  fraktag render -t extract.txt --var-file text=page.txt --run --json`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "template file (required)")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "variable as name=value (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderVarFiles, "var-file", nil, "variable as name=path, value read from the file (repeatable)")
	renderCmd.Flags().BoolVar(&renderRun, "run", false, "send the prompt to the model")
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "with --run, extract a JSON payload from the completion")
	renderCmd.Flags().IntVar(&renderMax, "max-tokens", 0, "with --run, generation budget (default llm.default_max_tokens)")
	renderCmd.MarkFlagRequired("template")
}

func runRender(cmd *cobra.Command, args []string) error {
	tmpl, err := os.ReadFile(renderTemplate)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	vars, err := parseVars(renderVars, renderVarFiles)
	if err != nil {
		return err
	}
	if missing := prompt.Missing(string(tmpl), vars); len(missing) > 0 {
		logger.Warn("template placeholders without a value are left as is", "missing", strings.Join(missing, ","))
	}

	if !renderRun {
		fmt.Fprintln(cmd.OutOrStdout(), prompt.Render(string(tmpl), vars))
		return nil
	}

	shape := port.ShapeText
	if renderJSON {
		shape = port.ShapeJSON
	}
	out, err := newLLM(GetConfig()).Complete(cmd.Context(), port.CompletionRequest{
		Template: string(tmpl),
		Vars:     vars,
		Shape:    shape,
		Budget:   port.Budget{MaxTokens: renderMax},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// parseVars builds the variable map. A name given more than once becomes a
// list.
func parseVars(pairs, filePairs []string) (prompt.Vars, error) {
	vars := prompt.Vars{}
	add := func(name, value string) {
		switch cur := vars[name].(type) {
		case nil:
			vars[name] = value
		case string:
			vars[name] = []string{cur, value}
		case []string:
			vars[name] = append(cur, value)
		}
	}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", p)
		}
		add(name, value)
	}
	for _, p := range filePairs {
		name, path, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var-file %q, want name=path", p)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		add(name, string(data))
	}
	return vars, nil
}
