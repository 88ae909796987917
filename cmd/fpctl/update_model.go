package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fingerprint_access/internal/app/di"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// modelUpdater はマッチャーの内部インデックスを再構築します。
type modelUpdater interface {
	UpdateModel(ctx context.Context) error
}

// newModelUpdater はテストで差し替えます。
var newModelUpdater = func() modelUpdater { return di.NewMatcher() }

var updateModelTimeout time.Duration

var updateModelCmd = &cobra.Command{
	Use:   "update-model",
	Short: "Rebuild the matcher index after new samples are registered",
	Long: `Runs the matcher with --update-model using the same MATCHER_* settings
as the server.`,
	Args: cobra.NoArgs,
	RunE: runUpdateModel,
}

func init() {
	updateModelCmd.Flags().DurationVar(&updateModelTimeout, "timeout", 0, "time limit (defaults to MATCHER_TIMEOUT)")
	rootCmd.AddCommand(updateModelCmd)
}

func runUpdateModel(cmd *cobra.Command, _ []string) error {
	timeout := updateModelTimeout
	if timeout <= 0 {
		timeout = usecase.LoadConfig().MatcherTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cmd.Println("Updating matcher model...")
	if err := newModelUpdater().UpdateModel(ctx); err != nil {
		return fmt.Errorf("update model failed: %w", err)
	}
	cmd.Println("Matcher model updated.")
	return nil
}
