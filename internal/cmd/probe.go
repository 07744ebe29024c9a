package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"model-execution-service/internal/core/domain"
)

var probeCmd = &cobra.Command{
	Use:   "probe <endpoint_id>",
	Short: "Run a synchronous job against a remote endpoint",
	Long: `Run a synchronous job directly against a provider endpoint, bypassing the
store. Useful to check that an endpoint is reachable and healthy before
publishing a model on it.

Examples:
  execctl probe abc123xyz --input '{"prompt":"ping"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&inputFlag, "input", "", "Job input as a JSON object")
}

func runProbe(cmd *cobra.Command, args []string) error {
	input, err := parseInput(inputFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := newRemoteClient(&cfg.Remote)
	start := time.Now()
	result, err := client.SubmitSync(ctx, args[0], input)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"endpoint_id": args[0],
		"job_id":      result.ID,
		"status":      result.Status,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}).Debug("probe finished")

	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if mapped := domain.MapRemoteStatus(result.Status); mapped != domain.ExecutionStatusCompleted {
		return fmt.Errorf("probe finished with status %s", mapped)
	}
	return nil
}
