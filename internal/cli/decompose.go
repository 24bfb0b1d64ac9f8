package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fraktag/internal/usecase"
)

var (
	decomposeTitle     string
	decomposeMaxTokens int
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose [file]",
	Short: "Split a document into titled segments, asking the model for oversized sections",
	Long: `Split a document along its structure, then ask the model to break up every
section still larger than --max-tokens. Prints the segments as JSON with rune
offsets into the input.

Examples:
  fraktag decompose book.txt
  fraktag decompose --max-tokens 2000 --title "Handbook" handbook.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecompose,
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	decomposeCmd.Flags().StringVar(&decomposeTitle, "title", "", "document title (default is the file name)")
	decomposeCmd.Flags().IntVar(&decomposeMaxTokens, "max-tokens", 0, "sections above this size are decomposed by the model (default chunking.max_tokens or 512)")
}

func runDecompose(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	title := decomposeTitle
	if title == "" && len(args) > 0 && args[0] != "-" {
		title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	maxTokens := decomposeMaxTokens
	if maxTokens <= 0 {
		maxTokens = cfg.Chunking.Options.MaxTokens
	}

	uc := usecase.NewDecomposeUseCase(newLLM(cfg), cfg.Chunking.Structural, maxTokens, logger.With("component", "decompose"))
	segments, err := uc.Decompose(cmd.Context(), title, text)
	if err != nil {
		return fmt.Errorf("decompose failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(segments)
}
