package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"knlm-go/internal/corpus"
)

var (
	scoreStoreDir  string
	scoreSessionID string
	scoreSequence  string
)

func newScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a token sequence against a saved, optimized model",
		RunE:  scoreCommandE,
	}
	cmd.Flags().StringVarP(&scoreStoreDir, "store-dir", "s", "models", "Directory models were saved under")
	cmd.Flags().StringVar(&scoreSessionID, "session", "", "Session id to score against (required)")
	cmd.Flags().StringVar(&scoreSequence, "sequence", "", "Whitespace-separated token sequence (required)")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("sequence")
	return cmd
}

func scoreCommandE(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	defer logger.Sync()

	store, err := corpus.NewPersistence(scoreStoreDir, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	loaded, err := store.Load(scoreSessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	seq, err := parseSequence(scoreSequence)
	if err != nil {
		return err
	}

	total, err := loaded.Model.EvaluateLLSent(seq, math.Inf(-1))
	if err != nil {
		return fmt.Errorf("evaluate sequence: %w", err)
	}
	perToken, err := loaded.Model.EvaluateLLEachWord(seq)
	if err != nil {
		return fmt.Errorf("evaluate per-token: %w", err)
	}

	fmt.Printf("total log-likelihood: %v\n", total)
	fmt.Printf("per-token log-likelihood: %v\n", perToken)
	return nil
}

func parseSequence(s string) ([]uint32, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty sequence")
	}
	seq := make([]uint32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid token %q: %w", field, err)
		}
		seq[i] = uint32(v)
	}
	return seq, nil
}
