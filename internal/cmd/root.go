package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"model-execution-service/internal/adapters/secondary/postgres"
	"model-execution-service/internal/adapters/secondary/runpod"
	"model-execution-service/internal/config"
	ports "model-execution-service/internal/core/ports/output"
	"model-execution-service/internal/core/services"
)

var (
	consumerFlag string
	inputFlag    string
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "execctl",
	Short: "Operate marketplace model executions",
	Long: `execctl submits, inspects and cancels model executions using the same
store and remote execution service as the API server.

Settings come from the environment (DATABASE_*, REMOTE_*), as for the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newEngine wires an engine to the configured store and remote client.
// Replaced in tests.
var newEngine = func(ctx context.Context, cfg *config.Config) (*services.ExecutionEngine, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	engine := services.NewExecutionEngine(postgres.NewJobStore(pool), newRemoteClient(&cfg.Remote))
	return engine, pool.Close, nil
}

// newRemoteClient builds the provider client. Replaced in tests.
var newRemoteClient = func(cfg *config.RemoteConfig) ports.RemoteExecutionClient {
	return runpod.NewClient(cfg)
}

var loadConfig = func() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine *services.ExecutionEngine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, closeFn, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, engine)
}

func parseInput(raw string) (map[string]interface{}, error) {
	input := map[string]interface{}{}
	if raw == "" {
		return input, nil
	}
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("parse --input: %w", err)
	}
	return input, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
