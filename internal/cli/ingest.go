package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/adapter/fs"
	"fraktag/internal/adapter/store"
	"fraktag/internal/domain"
	"fraktag/internal/port"
	"fraktag/internal/usecase"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk and store every included document",
	Long: `Chunk the documents under a directory and store the chunks in
.fraktag/store.db. Unchanged files are skipped; files that disappeared are
removed from the store. Changing the chunking settings triggers a rebuild.

Examples:
  fraktag ingest .
  fraktag ingest --watch docs/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and re-chunk files as they change")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	st, dbPath, err := openStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := prepareStore(st); err != nil {
		return err
	}

	strategy, err := chunker.NewWithConfig(domain.StrategyID(cfg.Chunking.Strategy), cfg.Chunking.Structural)
	if err != nil {
		return err
	}
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	ingestUC := usecase.NewIngestUseCase(st, walker, fs.Reader{}, strategy, cfg.Chunking.Options,
		cfg.Ingest.Workers, logger.With("component", "ingest"), tracer)
	ingestUC.OnProgress = progress("Chunking")

	fmt.Printf("Scanning %s...\n", path)
	result, err := ingestUC.Ingest(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if err := st.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	fmt.Printf("\nIngest complete (%s):\n", strategy.Name())
	fmt.Printf("  Files chunked:  %d\n", result.FilesChunked)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files deleted:  %d (removed)\n", result.FilesDeleted)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	fmt.Printf("\nStore: %s\n", dbPath)

	if !ingestWatch {
		return nil
	}
	ingestUC.OnProgress = nil
	return watch(cmd.Context(), path, walker, ingestUC)
}

// prepareStore migrates the schema or clears stale chunks.
func prepareStore(st *store.BoltStore) error {
	cfg := GetConfig()
	res, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	switch {
	case res.NeedsRebuild:
		fmt.Printf("Store rebuild required: %s\n", res.Reason)
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	case res.NeedsMigration:
		logger.Info("running schema migration", "reason", res.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func watch(ctx context.Context, root string, walker *fs.Walker, ingestUC *usecase.IngestUseCase) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := fs.NewWatcher(root, walker, 0)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	fmt.Println("\nWatching for changes (Ctrl+C to stop)...")
	return w.Run(ctx, func(changes []fs.Change) {
		for _, c := range changes {
			if c.Removed {
				if err := ingestUC.RemoveFile(c.Path); err != nil {
					logger.Warn("failed to remove document", "path", c.Path, "error", err)
					continue
				}
				logger.Info("removed", "path", c.Path)
				continue
			}
			info, err := os.Stat(c.Path)
			if err != nil {
				logger.Warn("changed file vanished", "path", c.Path, "error", err)
				continue
			}
			n, err := ingestUC.IngestFile(ctx, port.FileInfo{Path: c.Path, ModTime: info.ModTime().UnixNano(), Size: info.Size()})
			if err != nil {
				logger.Warn("failed to re-chunk", "path", c.Path, "error", err)
				continue
			}
			logger.Info("re-chunked", "path", c.Path, "chunks", n)
		}
	})
}
