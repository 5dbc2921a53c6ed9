// Package server wires the taskkeeper components together and runs the
// HTTP server until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/avatars"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	users  *services.UserService
	server *httpapi.Server
}

// NewApp opens the database, applies migrations and builds the service graph.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := newAvatarStore(ctx, cfg, rm, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mail := newMailer(cfg)

	us := services.NewUserService(db, rm, store, mail, cfg, logger)
	ts := services.NewTaskService(db, rm)
	as := services.NewAvatarService(store)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		users:  us,
		server: httpapi.NewServer(cfg.EndpointAddrHTTP, logger, us, ts, as),
	}, nil
}

func newAvatarStore(ctx context.Context, cfg *config.Config, rm repomanager.RepositoryManager, db *sql.DB) (avatars.Store, error) {
	if cfg.AvatarStorage == config.AvatarStorageS3 {
		return avatars.NewS3Store(ctx, avatars.S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return avatars.NewDBStore(rm.Users(db)), nil
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SendGridAPIKey == "" {
		return mailer.NopMailer{}
	}
	return mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	app.users.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close failed", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
