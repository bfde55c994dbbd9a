package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"knlm-go/internal/corpus"
)

var (
	trainInput    string
	trainStoreDir string
	trainOrder    int
	trainDedup    bool
	trainOptimize bool
)

func newTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a new model from a corpus file",
		Long: `Train reads one token sequence per line from the given corpus file,
folds each sequence into a fresh model, and saves the result under
store-dir. The model is baked for scoring before saving (--optimize,
on by default); with --optimize=false nothing is saved, since only an
optimized model can be serialized, and only the training stats are
printed.`,
		RunE: trainCommandE,
	}
	cmd.Flags().StringVarP(&trainInput, "input", "i", "", "Path to a corpus file, one token sequence per line (required)")
	cmd.Flags().StringVarP(&trainStoreDir, "store-dir", "s", "models", "Directory to persist the trained model under")
	cmd.Flags().IntVarP(&trainOrder, "order", "n", 3, "N-gram order")
	cmd.Flags().BoolVar(&trainDedup, "dedup", true, "Skip sequences identical to one already trained this run")
	cmd.Flags().BoolVar(&trainOptimize, "optimize", true, "Bake the model for scoring before saving")
	cmd.MarkFlagRequired("input")
	return cmd
}

func trainCommandE(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	defer logger.Sync()

	sequences, err := readSequences(trainInput)
	if err != nil {
		return err
	}

	session, err := corpus.NewSession(trainOrder, trainDedup, logger)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	for _, seq := range sequences {
		if err := session.Train(seq); err != nil {
			return fmt.Errorf("train sequence: %w", err)
		}
	}

	if trainOptimize {
		if err := session.Optimize(); err != nil {
			return fmt.Errorf("optimize: %w", err)
		}
	}

	if !trainOptimize {
		fmt.Println("warning: model was not optimized, so it cannot be serialized; nothing was saved")
		stats := session.Stats()
		fmt.Printf("session %s: trained %d sequences, skipped %d, vocab size %d, optimized %v\n",
			stats.SessionID, stats.Trained, stats.Skipped, stats.VocabSize, stats.Optimized)
		return nil
	}

	store, err := corpus.NewPersistence(trainStoreDir, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := store.Save(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	stats := session.Stats()
	fmt.Printf("session %s: trained %d sequences, skipped %d, vocab size %d, optimized %v\n",
		stats.SessionID, stats.Trained, stats.Skipped, stats.VocabSize, stats.Optimized)
	return nil
}
