package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/domain"
)

var (
	chunkStrategy    string
	chunkMaxTokens   int
	chunkMaxChars    int
	chunkOverlap     int
	chunkMinChars    int
	chunkMaxSections int
	chunkJSON        bool
	chunkShowText    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split one document into chunks",
	Long: `Split a document into chunks and print them. Reads stdin when no file is
given or the file is "-".

Strategies: recursive (structure aware), fixed-512, fixed-1024.

Examples:
  fraktag chunk report.txt
  fraktag chunk -s fixed-1024 --overlap-chars 0 --json report.txt
  cat notes.md | fraktag chunk --min-chars 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().StringVarP(&chunkStrategy, "strategy", "s", "", "chunking strategy (default from config)")
	chunkCmd.Flags().IntVar(&chunkMaxTokens, "max-tokens", 0, "maximum tokens per chunk")
	chunkCmd.Flags().IntVar(&chunkMaxChars, "max-chars", 0, "maximum characters per chunk (overrides --max-tokens)")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap-chars", 0, "characters shared by consecutive windows")
	chunkCmd.Flags().IntVar(&chunkMinChars, "min-chars", 0, "drop chunks shorter than this")
	chunkCmd.Flags().IntVar(&chunkMaxSections, "max-sections", 0, "cap on structural sections")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "print the chunking result as JSON")
	chunkCmd.Flags().BoolVar(&chunkShowText, "text", false, "print chunk text")
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	id := cfg.Chunking.Strategy
	if chunkStrategy != "" {
		id = chunkStrategy
	}
	strategy, err := chunker.NewWithConfig(domain.StrategyID(id), cfg.Chunking.Structural)
	if err != nil {
		return err
	}

	opts := cfg.Chunking.Options
	flags := cmd.Flags()
	if flags.Changed("max-tokens") {
		opts.MaxTokens = chunkMaxTokens
	}
	if flags.Changed("max-chars") {
		opts.MaxChars = domain.Chars(chunkMaxChars)
	}
	if flags.Changed("overlap-chars") {
		opts.OverlapChars = domain.Chars(chunkOverlap)
	}
	if flags.Changed("min-chars") {
		opts.MinChunkChars = domain.Chars(chunkMinChars)
	}
	if flags.Changed("max-sections") {
		opts.MaxSections = chunkMaxSections
	}

	result, err := chunker.Run(strategy, text, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if chunkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Strategy: %s\n", result.Strategy)
	fmt.Fprintf(out, "Chunks:   %d\n", len(result.Chunks))
	fmt.Fprintf(out, "Tokens:   %d (avg %.1f per chunk)\n\n", result.TotalTokens, result.AvgTokensPerChunk)
	for i, c := range result.Chunks {
		title, _ := c.Metadata[domain.MetaTitle].(string)
		source, _ := c.Metadata[domain.MetaSourceType].(string)
		fmt.Fprintf(out, "[%d] %d-%d %s", i, c.Start, c.End, source)
		if title != "" {
			fmt.Fprintf(out, " %q", title)
		}
		fmt.Fprintf(out, " ~%d tokens\n", strategy.EstimateTokens(c.Text))
		if chunkShowText {
			fmt.Fprintf(out, "%s\n\n", indent(c.Text))
		}
	}
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
