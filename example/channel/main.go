package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8"
)

func main() {
	flow, err := tempmon.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, batches, closeBatches := tempmon.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker("archive", batches)

	if err := flow.Run(ctx, tempmon.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan []tempmon.Record) {
	for batch := range batches {
		gaps := 0
		for _, r := range batch {
			if r.Gap {
				gaps++
			}
		}
		fmt.Printf("[%s] %d records (%d gaps) at %s\n", name, len(batch), gaps, time.Now().Format(time.RFC3339))
	}
}
