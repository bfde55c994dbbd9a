// Command lmctl is an offline client for training and inspecting Modified
// Kneser-Ney language models, without going through the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap itself failed to build; fall back rather than leave the CLI
		// silently unobservable.
		logger = zap.NewNop()
	}
	return logger
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lmctl",
		Short: "Train and inspect Modified Kneser-Ney language models offline",
	}
	root.AddCommand(newTrainCommand())
	root.AddCommand(newScoreCommand())
	root.AddCommand(newStatsCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
