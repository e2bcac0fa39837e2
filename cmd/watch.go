package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"speech-training-service/internal/config"
	"speech-training-service/internal/events"
)

var (
	watchSession string
	watchSince   time.Duration
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print session messages and results published to Kafka",
		RunE:  runWatch,
	}
	cmd.Flags().StringVar(&watchSession, "session", "", "only show events for this session id")
	cmd.Flags().DurationVar(&watchSince, "since", time.Hour, "replay events newer than this")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	ctx := cmd.Context()
	since := time.Now().Add(-watchSince)

	var mu sync.Mutex
	printEvent := func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-16s %s %s\n",
			e.Time.Format(time.TimeOnly), e.EventType, e.Key, e.Payload)
	}

	var readers []*kafka.Reader
	for _, topic := range []string{cfg.Kafka.TopicMessages, cfg.Kafka.TopicResults} {
		reader, err := events.NewReader(ctx, cfg.Kafka.Brokers, topic, since)
		if err != nil {
			for _, r := range readers {
				r.Close()
			}
			return fmt.Errorf("open %s: %w", topic, err)
		}
		readers = append(readers, reader)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, reader := range readers {
		g.Go(func() error {
			return events.Watch(gctx, reader, watchSession, time.Second, printEvent)
		})
	}
	return g.Wait()
}
