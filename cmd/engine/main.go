package main

import (
	"context"
	"os/signal"
	"syscall"

	workerengine "github.com/scoreline/powerrank/app/engine"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := workerengine.Initialize(ctx)

	app.Start(ctx)
}
