package scheduler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/scoreline/powerrank/pkg/engine/workflow"
	"github.com/scoreline/powerrank/pkg/logging"
	"github.com/scoreline/powerrank/pkg/temporal"
	"github.com/scoreline/powerrank/pkg/utils"
)

// App reconciles the desired ranking cadence against Temporal: every cron
// tick it makes sure the run schedule exists, recreating it if someone
// deleted it out from under us.
type App struct {
	TemporalClient *temporal.Client

	// Cron triggers reconciliation at the interval given by CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// RunInterval is how often a ranking run fires.
	RunInterval time.Duration

	Logger *zap.Logger

	// Server is the HTTP server that serves health probes.
	Server *http.Server
}

// Initialize initializes the App.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	temporalClient, err := temporal.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to establish temporal connection", zap.Error(err))
	}

	app := &App{
		TemporalClient: temporalClient,
		CronSpec:       utils.Env("SCHEDULER_CRON", "0 */1 * * * *"),
		RunInterval:    utils.EnvDuration("RANKINGS_RUN_INTERVAL", 24*time.Hour),
		Logger:         logger,
	}

	if err := app.SetupScheduler(ctx, cron.DefaultLogger, app.CronSpec); err != nil {
		return nil, err
	}

	return app, nil
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() {
	addr := utils.Env("ADDR", ":3002")

	r := mux.NewRouter()

	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })).Methods("GET")
	r.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h := a.TemporalClient.CheckHealth(context.Background())
		if h.ConnectionOK {
			w.WriteHeader(200)
		} else {
			w.WriteHeader(503)
		}
	})).Methods("GET")

	a.Server = &http.Server{Addr: addr, Handler: r}
}

// SetupScheduler sets up the cron scheduler.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	// Seconds field, optional
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := a.Reconcile(rctx); err != nil {
			logger.Info("[scheduler] reconcile error", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return nil
}

// Reconcile ensures the ranking run schedule exists with the configured
// interval.
func (a *App) Reconcile(ctx context.Context) error {
	scheduleID := a.TemporalClient.RankingRunScheduleID
	handle := a.TemporalClient.TSClient.GetHandle(ctx, scheduleID)

	_, err := handle.Describe(ctx)
	if err == nil {
		return nil
	}
	var notFound *serviceerror.NotFound
	if !errors.As(err, &notFound) {
		return err
	}

	a.Logger.Info("Creating ranking run schedule",
		zap.String("schedule_id", scheduleID),
		zap.Duration("interval", a.RunInterval))

	_, err = a.TemporalClient.TSClient.Create(ctx, client.ScheduleOptions{
		ID:   scheduleID,
		Spec: a.TemporalClient.GetScheduleSpec(a.RunInterval),
		Action: &client.ScheduleWorkflowAction{
			ID:        a.TemporalClient.GetRankingRunWorkflowID("scheduled"),
			Workflow:  workflow.RankingRunWorkflowName,
			Args:      []interface{}{},
			TaskQueue: a.TemporalClient.RankingsQueue,
		},
	})
	if err != nil {
		if errors.Is(err, sdktemporal.ErrScheduleAlreadyRunning) {
			return nil
		}
		return err
	}

	a.Logger.Info("Ranking run schedule created", zap.String("schedule_id", scheduleID))
	return nil
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("[scheduler] Cron started", zap.String("cronSpec", a.CronSpec))
}

// Start runs the health server and cron loop until the context is canceled.
func (a *App) Start(ctx context.Context) {
	a.SetupServer()
	a.StartCron()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.Stop()
}

// Stop stops the cron loop and the HTTP server.
func (a *App) Stop() {
	cronCtx := a.Cron.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	a.TemporalClient.Close()
	a.Logger.Info("Scheduler stopped")
}
