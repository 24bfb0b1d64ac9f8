package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fraktag/config"
	"fraktag/internal/adapter/store"
	"fraktag/internal/domain"
)

var (
	statsJSON bool
	statsDocs bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the chunk store holds",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")
	statsCmd.Flags().BoolVar(&statsDocs, "docs", false, "list documents")
}

type docSummary struct {
	Path     string `json:"path"`
	Strategy string `json:"strategy"`
	Chunks   int    `json:"chunks"`
	Gists    int    `json:"gists"`
}

type statsReport struct {
	Store     string       `json:"store"`
	Stats     domain.Stats `json:"stats"`
	Rebuild   string       `json:"rebuild_reason,omitempty"`
	Documents []docSummary `json:"documents,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath := config.StoreDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no chunk store at %s, run fraktag ingest first", dbPath)
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		return err
	}
	report := statsReport{Store: dbPath, Stats: stats}
	if rebuild, reason, err := st.NeedsRebuild(GetConfig()); err == nil && rebuild {
		report.Rebuild = reason
	}

	if statsDocs {
		docs, err := st.ListDocs()
		if err != nil {
			return err
		}
		for _, d := range docs {
			chunks, err := st.GetChunksByDoc(d.ID)
			if err != nil {
				return err
			}
			sum := docSummary{Path: d.Path, Strategy: d.Strategy, Chunks: len(chunks)}
			for _, c := range chunks {
				if _, ok, _ := st.GetGist(c.ID); ok {
					sum.Gists++
				}
			}
			report.Documents = append(report.Documents, sum)
		}
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Store:      %s\n", report.Store)
	fmt.Fprintf(out, "Documents:  %d\n", stats.TotalDocs)
	fmt.Fprintf(out, "Chunks:     %d\n", stats.TotalChunks)
	fmt.Fprintf(out, "Tokens:     %d (avg %.1f per chunk)\n", stats.TotalTokens, stats.AvgTokensPerChunk)
	if report.Rebuild != "" {
		fmt.Fprintf(out, "Stale:      %s, run fraktag ingest\n", report.Rebuild)
	}
	for _, d := range report.Documents {
		rel, err := filepath.Rel(GetRootDir(), d.Path)
		if err != nil {
			rel = d.Path
		}
		fmt.Fprintf(out, "  %-40s %-10s %4d chunks %4d gists\n", rel, d.Strategy, d.Chunks, d.Gists)
	}
	return nil
}
