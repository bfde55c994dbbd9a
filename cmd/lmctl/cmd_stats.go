package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"knlm-go/internal/corpus"
)

var (
	statsStoreDir  string
	statsSessionID string
)

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print saved metadata for a session, or list all saved sessions",
		RunE:  statsCommandE,
	}
	cmd.Flags().StringVarP(&statsStoreDir, "store-dir", "s", "models", "Directory models were saved under")
	cmd.Flags().StringVar(&statsSessionID, "session", "", "Session id to inspect; omit to list all saved sessions")
	return cmd
}

func statsCommandE(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	defer logger.Sync()

	store, err := corpus.NewPersistence(statsStoreDir, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if statsSessionID == "" {
		ids, err := store.List()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	loaded, err := store.Load(statsSessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s := loaded.Stats
	fmt.Printf("session:    %s\n", s.SessionID)
	fmt.Printf("order:      %d\n", s.Order)
	fmt.Printf("vocab size: %d\n", s.VocabSize)
	fmt.Printf("node count: %d\n", s.NodeCount)
	fmt.Printf("optimized:  %v\n", s.Optimized)
	fmt.Printf("trained:    %d\n", s.Trained)
	fmt.Printf("skipped:    %d\n", s.Skipped)
	fmt.Printf("created at: %s\n", s.CreatedAt)
	return nil
}
