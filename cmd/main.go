// Command speech-training runs the pronunciation training service and its
// maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"speech-training-service/internal/app"
	"speech-training-service/internal/config"
	"speech-training-service/internal/service/words"
)

var (
	reconcileOlderThan time.Duration

	wordsAge        int
	wordsDifficulty string
	wordsCount      int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "speech-training",
		Short:        "Pronunciation training service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newWordsCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, gRPC health and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), config.Load())
		},
	}
}

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Return sessions stuck in PROCESSING to AWAITING_AUDIO",
		Long: "Recovers sessions left mid-operation by a crash. Needs a durable store " +
			"(STORE_DRIVER=badger) that no running server holds open.",
		RunE: runReconcile,
	}
	cmd.Flags().DurationVar(&reconcileOlderThan, "older-than", 0, "minimum age of a stale session (default TRAINING_STALE_PROCESSING)")
	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	olderThan := cfg.Training.StaleProcessing
	if reconcileOlderThan > 0 {
		olderThan = reconcileOlderThan
	}

	a := app.New(cfg)
	if err := a.Start(cmd.Context()); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Shutdown()

	n, err := a.Training.Reconcile(cmd.Context(), olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recovered %d session(s)\n", n)
	return nil
}

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Print a word list from the configured supplier",
		RunE:  runWords,
	}
	cmd.Flags().IntVar(&wordsAge, "age", 8, "learner age")
	cmd.Flags().StringVar(&wordsDifficulty, "difficulty", "", "difficulty tag ("+strings.Join(words.ListDifficulties(), ", ")+")")
	cmd.Flags().IntVar(&wordsCount, "count", 10, "number of words")
	return cmd
}

func runWords(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	cfg.Observability.LogLevel = "warn"

	a := app.New(cfg)
	if err := a.Start(cmd.Context()); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Shutdown()

	tag, err := words.ParseDifficulty(wordsDifficulty)
	if err != nil {
		return err
	}
	list, err := a.Words.Generate(cmd.Context(), wordsAge, tag, wordsCount)
	if err != nil {
		return err
	}
	for _, w := range list {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	return nil
}
