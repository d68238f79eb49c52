// Package main is the rule engine API process.
//
// @title Rule Engine API
// @version 1.0
// @description Multi-tenant rule index debug/inspection HTTP API
// @BasePath /
package main

import (
	"context"
	"log"

	"ruleengine/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + engine).
// 3) Initialize the engine and start the HTTP server.
func main() {
	log.Println("rule engine api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("rule engine api stopped with error: %v", err)
	}
}
