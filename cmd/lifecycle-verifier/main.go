package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/logging"
	"github.com/ismaiel54/fix-order-client/internal/msg"
	"go.uber.org/zap"
)

func main() {
	duration := flag.Duration("duration", 30*time.Second, "how long to consume")
	brokers := flag.String("brokers", "127.0.0.1:9092", "comma-separated Kafka brokers")
	group := flag.String("group", "lifecycle-verifier-v1", "consumer group")
	flag.Parse()

	logger, err := logging.NewLogger("lifecycle-verifier", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := msg.LoadConfig()
	cfg.Brokers = msg.ParseBrokers(*brokers)
	cfg.ClientID = "lifecycle-verifier"

	logger.Info("starting lifecycle verifier",
		zap.Duration("duration", *duration),
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)

	consumer, err := msg.NewConsumer(cfg, *group, []string{cfg.Topic}, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	tally := msg.NewTally()
	err = consumer.Run(ctx, func(ctx context.Context, rec msg.Record) error {
		ev, err := rec.LifecycleEvent()
		if err != nil {
			logger.Warn("skipping undecodable event", zap.Error(err))
			return nil
		}
		tally.Add(ev)
		logger.Debug("consumed event",
			zap.String("cl_ord_id", ev.ClOrdID),
			zap.String("event_id", ev.EventID),
			zap.String("state", ev.ToState),
			zap.Int32("partition", rec.Partition),
			zap.Int64("offset", rec.Offset),
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("consumer error", zap.Error(err))
	}

	unfinished := tally.Unfinished()

	fmt.Println("\n=== Lifecycle Verification ===")
	fmt.Printf("Events consumed: %d\n", tally.Events())
	fmt.Printf("Redelivered events: %d\n", tally.Repeated)
	fmt.Printf("Orders seen: %d\n", tally.Orders())
	fmt.Printf("Orders without a final state: %d\n", len(unfinished))

	if len(unfinished) > 0 {
		fmt.Println("\nUnfinished orders:")
		for _, ev := range unfinished {
			fmt.Printf("  cl_ord_id=%s state=%s session=%s\n", ev.ClOrdID, ev.ToState, ev.SessionID)
		}
		fmt.Println("\nVERIFICATION FAILED")
		logger.Sync()
		os.Exit(1)
	}

	fmt.Println("\nVERIFICATION PASSED")
}
