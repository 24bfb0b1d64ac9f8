package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"fraktag/config"
	"fraktag/internal/adapter/llm"
	"fraktag/internal/adapter/store"
)

func newLLM(cfg *config.Config) *llm.Adapter {
	return llm.New(
		llm.WithBaseURL(cfg.LLM.Endpoint),
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithContextSize(cfg.LLM.ContextSize),
		llm.WithDefaultMaxTokens(cfg.LLM.DefaultMaxTokens),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithLogger(logger.With("component", "llm")),
		llm.WithTracer(tracer),
	)
}

// openStore opens the chunk store under root, creating the data directory.
func openStore(root string) (*store.BoltStore, string, error) {
	if err := config.EnsureDataDir(root); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := config.StoreDBPath(root)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open chunk store: %w", err)
	}
	return st, dbPath, nil
}

// progress returns a callback driving a progress bar with an ETA. The bar is
// created on the first call, once the total is known.
func progress(label string) func(done, total int) {
	var (
		bar   *progressbar.ProgressBar
		start time.Time
	)
	return func(done, total int) {
		if bar == nil {
			start = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		_ = bar.Set(done)

		if done > 0 {
			rate := float64(done) / time.Since(start).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
