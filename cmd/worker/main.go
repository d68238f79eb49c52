package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ruleengine/internal/app/bootstrap"
)

// Worker process entrypoint: runs the engine's startup loader and
// control-plane subscriber with no HTTP surface attached, for
// deployments that split the debug API from control-plane processing.
// Data flow:
// 1) Load config.
// 2) Build app wiring (same Engine composition as the API process).
// 3) Initialize the engine and block until a termination signal arrives.
func main() {
	log.Println("rule engine worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("rule engine worker stopped with error: %v", err)
	}
}
