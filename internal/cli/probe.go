package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the LLM endpoint is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		if !newLLM(cfg).Probe(ctx) {
			return fmt.Errorf("%s is not reachable", cfg.LLM.Endpoint)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable (model %s)\n", cfg.LLM.Endpoint, cfg.LLM.Model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
