// Package app initializes and runs the sharing pipeline.
// It configures the ledger and content store backends, handles graceful
// shutdown, executes the requested number of sharing sessions and writes
// a report for each one.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/preshare/internal/audit"
	"github.com/dmitrijs2005/preshare/internal/blobstore"
	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/config"
	"github.com/dmitrijs2005/preshare/internal/consent"
	"github.com/dmitrijs2005/preshare/internal/identity"
	"github.com/dmitrijs2005/preshare/internal/ledger"
	"github.com/dmitrijs2005/preshare/internal/logging"
	"github.com/dmitrijs2005/preshare/internal/monitor"
	"github.com/dmitrijs2005/preshare/internal/records"
	"github.com/dmitrijs2005/preshare/internal/report"
	"github.com/dmitrijs2005/preshare/internal/session"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	ledger       ledger.Ledger
	trail        *audit.MemoryTrail
	orchestrator *session.Orchestrator
	reports      *report.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	l, err := newLedger(c)
	if err != nil {
		return nil, fmt.Errorf("ledger init error: %w", err)
	}

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	trail := audit.NewMemoryTrail()
	ids := identity.NewRegistry(l, trail, logger)
	vault := identity.NewVault()
	recs := records.NewRegistry(l, trail, logger)
	cons := consent.NewStateMachine(l, trail, logger)

	reports, err := report.NewWriter(c.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("report init error: %w", err)
	}

	return &App{
		config:       c,
		logger:       logger,
		ledger:       l,
		trail:        trail,
		orchestrator: session.NewOrchestrator(ids, vault, recs, cons, store, logger),
		reports:      reports,
	}, nil
}

func newLedger(c *config.Config) (ledger.Ledger, error) {
	switch c.LedgerBackend {
	case "memory":
		return ledger.NewMemoryLedger(), nil
	case "badger":
		return ledger.NewBadgerLedger(c.BadgerPath)
	case "postgres":
		return ledger.NewPostgresLedger(c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", c.LedgerBackend)
	}
}

func newStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobBackend {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown content store backend: %s", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runSession executes one full sharing session and writes its reports.
func (app *App) runSession(ctx context.Context, seq int) error {

	// session-scoped principal ids keep repeated runs against a
	// persistent ledger from colliding
	tag := uuid.New().String()[:8]

	var mon *monitor.Monitor
	if app.config.MonitorEnabled {
		m, err := monitor.New(app.config.MonitorInterval, app.logger)
		if err != nil {
			return fmt.Errorf("monitor init: %w", err)
		}
		mon = m
		mon.Start(ctx)
	}

	result, err := app.orchestrator.Run(ctx, session.Params{
		OwnerID:        "owner-" + tag,
		UploaderID:     "uploader-" + tag,
		ViewerID:       "viewer-" + tag,
		Payload:        common.GenerateRandByteArray(app.config.PayloadSize),
		StorePlaintext: app.config.StorePlaintext,
	})

	var resources *monitor.Summary
	if mon != nil {
		s := mon.Stop()
		resources = &s
	}

	if err != nil {
		return fmt.Errorf("session %d: %w", seq, err)
	}

	r := &report.Report{Session: result, Resources: resources}

	jsonPath, err := app.reports.WriteJSON(r)
	if err != nil {
		return fmt.Errorf("session %d report: %w", seq, err)
	}
	if _, err := app.reports.AppendCSV(r); err != nil {
		return fmt.Errorf("session %d report: %w", seq, err)
	}

	app.logger.Info(ctx, "session finished",
		"seq", seq,
		"session_id", result.SessionID,
		"record_id", result.RecordID,
		"total_ms", result.TotalMS,
		"report", jsonPath,
	)
	for _, stage := range result.Stages {
		app.logger.Info(ctx, "stage", "name", stage.Name, "duration_ms", stage.DurationMS)
	}

	return nil
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"ledger", app.config.LedgerBackend,
		"store", app.config.BlobBackend,
		"sessions", app.config.Sessions,
	)

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.ledger.Close(); err != nil {
			app.logger.Error(ctx, "ledger close error", "error", err)
		}
	}()

	for i := 1; i <= app.config.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := app.runSession(ctx, i); err != nil {
			return err
		}
	}

	app.logger.Info(ctx, "All sessions finished", "audit_entries", len(app.trail.Entries()))
	return nil
}
