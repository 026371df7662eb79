package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/pkg/tempmon"
)

func main() {
	flow, err := tempmon.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archive := func(batch []tempmon.Record) error {
		for _, r := range batch {
			if r.Gap {
				fmt.Printf("%s channel=%s gap\n", r.Timestamp.Format(time.RFC3339Nano), r.ChannelID)
				continue
			}
			fmt.Printf("%s channel=%s value=%.2f\n", r.Timestamp.Format(time.RFC3339Nano), r.ChannelID, r.Value)
		}
		return nil
	}

	alerts, err := tempmon.NewCallbackNotifier("stdout", func(_ context.Context, ev tempmon.AlertEvent) error {
		fmt.Println(ev.Body())
		return nil
	})
	if err != nil {
		log.Fatalf("notifier: %v", err)
	}

	if err := flow.Run(ctx,
		tempmon.StreamOutCallback("stdout", archive),
		tempmon.StreamOutNotifier(alerts),
	); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
