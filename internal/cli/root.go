package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fraktag/config"
	"fraktag/internal/logging"
	"fraktag/internal/tracing"
)

var (
	cfgFile  string
	envFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	logJSON  bool

	logger logging.Logger
	tracer *tracing.Tracer
)

var rootCmd = &cobra.Command{
	Use:   "fraktag",
	Short: "FRAKTAG - structure-aware chunking and LLM nuggets for document trees",
	Long: `fraktag splits documents into offset-addressable chunks, stores them, and
runs small typed LLM prompts ("nuggets") over them against an Ollama-compatible
endpoint.

Example usage:
  fraktag chunk notes.md                  # Chunk one file with the configured strategy
  fraktag chunk -s fixed-512 --json a.md  # Fixed windows, JSON output
  fraktag ingest .                        # Chunk and store every included file
  fraktag gist                            # Write a gist for every stored chunk
  fraktag navigate "how is X configured?" # Find the sections that answer a question
  fraktag probe                           # Check the LLM endpoint`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		var envFiles []string
		if envFile != "" {
			envFiles = append(envFiles, envFile)
		}
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv()

		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("log-json") {
			cfg.Logging.JSON = logJSON
		}
		logger = logging.Init(logging.Config{
			Level:      logging.ParseLevel(cfg.Logging.Level),
			JSON:       cfg.Logging.JSON,
			Output:     os.Stderr,
			TimeFormat: "15:04:05",
		})

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		tracer, err = tracing.New(cmd.Context(), cfg.Tracing)
		if err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if tracer == nil {
			return nil
		}
		return tracer.Shutdown(context.Background())
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fraktag.yaml or ./.fraktag/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default is ./.env)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
