// Command churnctl runs churn predictions offline against a model artifact.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churnscope/logging"
)

var (
	modelPath string
	logLevel  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "churnctl",
	Short:         "Offline customer churn predictions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, _, err = logging.New(logging.Options{Level: logLevel})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "models/churn_tree.json", "model artifact path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(schemaCmd, newPredictCmd(), batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
