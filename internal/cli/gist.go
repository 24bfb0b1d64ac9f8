package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"fraktag/internal/usecase"
)

var (
	gistForce bool
	gistPaths []string
)

var gistCmd = &cobra.Command{
	Use:   "gist",
	Short: "Write a short gist for every stored chunk",
	Long: `Run the gist nugget over the chunks in the store. Chunks that already have
a gist are skipped unless --force is given. Failed chunks are reported and
retried on the next run.

Examples:
  fraktag gist
  fraktag gist --path docs/setup.md --force`,
	Args: cobra.NoArgs,
	RunE: runGist,
}

func init() {
	rootCmd.AddCommand(gistCmd)
	gistCmd.Flags().BoolVar(&gistForce, "force", false, "regenerate existing gists")
	gistCmd.Flags().StringSliceVar(&gistPaths, "path", nil, "only documents at these paths (repeatable)")
}

func runGist(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, _, err := openStore(GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	adapter := newLLM(cfg)
	if !adapter.Probe(cmd.Context()) {
		logger.Warn("llm endpoint did not answer the probe, trying anyway", "endpoint", cfg.LLM.Endpoint)
	}

	paths := make([]string, len(gistPaths))
	for i, p := range gistPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", p, err)
		}
		paths[i] = abs
	}

	gistUC := usecase.NewGistUseCase(st, adapter, cfg.LLM.Concurrency, logger.With("component", "gist"))
	gistUC.OnProgress = progress("Gisting")

	result, err := gistUC.Run(cmd.Context(), usecase.GistOptions{Force: gistForce, Paths: paths})
	if err != nil {
		return fmt.Errorf("gist run failed: %w", err)
	}

	fmt.Printf("\nGists (%s):\n", adapter.ModelName())
	fmt.Printf("  Generated: %d\n", result.Generated)
	fmt.Printf("  Skipped:   %d (already present)\n", result.Skipped)
	fmt.Printf("  Failed:    %d\n", result.Failed)
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
	return nil
}
