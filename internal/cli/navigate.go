package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fraktag/internal/domain"
	"fraktag/internal/usecase"
)

var (
	navigateBatch int
	navigateJSON  bool
	navigateText  bool
)

var navigateCmd = &cobra.Command{
	Use:   "navigate <question>",
	Short: "Find the stored sections that help answer a question",
	Long: `Show the model the title and gist of every stored chunk, a batch at a time,
and print the ones it judges relevant to the question. Run "fraktag gist"
first for better judgements; chunks without a gist are shown by their opening
text.

Examples:
  fraktag navigate "how do I configure the endpoint?"
  fraktag navigate --text "what does the ingest command skip?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNavigate,
}

func init() {
	rootCmd.AddCommand(navigateCmd)
	navigateCmd.Flags().IntVar(&navigateBatch, "batch", usecase.DefaultBatchSize, "candidates judged per llm call")
	navigateCmd.Flags().BoolVar(&navigateJSON, "json", false, "output hits as JSON")
	navigateCmd.Flags().BoolVar(&navigateText, "text", false, "print the full text of each hit")
}

type navigateHit struct {
	Path  string       `json:"path"`
	ID    string       `json:"id"`
	Title string       `json:"title,omitempty"`
	Gist  string       `json:"gist"`
	Chunk domain.Chunk `json:"chunk"`
}

func runNavigate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	question := strings.Join(args, " ")

	st, _, err := openStore(GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	adapter := newLLM(cfg)
	hits, err := usecase.NewNavigateUseCase(st, adapter, navigateBatch, logger.With("component", "navigate")).
		Navigate(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if navigateJSON {
		out := make([]navigateHit, len(hits))
		for i, h := range hits {
			t, _ := h.Chunk.Chunk.Metadata[domain.MetaTitle].(string)
			out[i] = navigateHit{Path: h.Path, ID: h.Chunk.ID, Title: t, Gist: h.Gist, Chunk: h.Chunk.Chunk}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(hits) == 0 {
		fmt.Println("No relevant sections found.")
		return nil
	}
	root := GetRootDir()
	for i, h := range hits {
		rel, err := filepath.Rel(root, h.Path)
		if err != nil {
			rel = h.Path
		}
		t, _ := h.Chunk.Chunk.Metadata[domain.MetaTitle].(string)
		fmt.Printf("%d. %s [%d:%d] %s\n", i+1, rel, h.Chunk.Chunk.Start, h.Chunk.Chunk.End, t)
		fmt.Printf("   %s\n", h.Gist)
		if navigateText {
			fmt.Println(indent(h.Chunk.Chunk.Text))
		}
	}
	return nil
}
