package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/scoreline/powerrank/app/scheduler"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := scheduler.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	// Immediate pass before cron
	if reconcileErr := app.Reconcile(ctx); reconcileErr != nil {
		app.Logger.Warn("Initial reconcile failed, cron will retry", zap.Error(reconcileErr))
	}

	app.Start(ctx)
}
