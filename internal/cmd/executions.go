package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"model-execution-service/internal/adapters/primary/http/dto"
	"model-execution-service/internal/core/services"
)

var submitCmd = &cobra.Command{
	Use:   "submit <model_slug>",
	Short: "Submit a job for a published model",
	Long: `Submit a job for a published model on behalf of a consumer.

Examples:
  execctl submit text-to-speech --consumer 3f0c... --input '{"text":"Hello world"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var statusCmd = &cobra.Command{
	Use:   "status <execution_id>",
	Short: "Show the status of an execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <execution_id>",
	Short: "Cancel a non-terminal execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	for _, c := range []*cobra.Command{submitCmd, statusCmd, cancelCmd} {
		c.Flags().StringVar(&consumerFlag, "consumer", "", "Consumer id owning the execution (required)")
		_ = c.MarkFlagRequired("consumer")
		rootCmd.AddCommand(c)
	}
	submitCmd.Flags().StringVar(&inputFlag, "input", "", "Job input as a JSON object")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	consumerID, err := uuid.Parse(consumerFlag)
	if err != nil {
		return fmt.Errorf("invalid --consumer: %w", err)
	}
	input, err := parseInput(inputFlag)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(ctx context.Context, engine *services.ExecutionEngine) error {
		handle, err := engine.SubmitJob(ctx, consumerID, args[0], input)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.ToSubmitExecutionResponse(handle))
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	consumerID, executionID, err := parseOwnedArgs(args[0])
	if err != nil {
		return err
	}

	return withEngine(cmd, func(ctx context.Context, engine *services.ExecutionEngine) error {
		status, err := engine.GetJobStatus(ctx, executionID, consumerID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.ToExecutionStatusResponse(status))
	})
}

func runCancel(cmd *cobra.Command, args []string) error {
	consumerID, executionID, err := parseOwnedArgs(args[0])
	if err != nil {
		return err
	}

	return withEngine(cmd, func(ctx context.Context, engine *services.ExecutionEngine) error {
		status, err := engine.CancelJob(ctx, executionID, consumerID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.ToExecutionStatusResponse(status))
	})
}

func parseOwnedArgs(rawID string) (uuid.UUID, uuid.UUID, error) {
	consumerID, err := uuid.Parse(consumerFlag)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid --consumer: %w", err)
	}
	executionID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid execution id: %w", err)
	}
	return consumerID, executionID, nil
}
