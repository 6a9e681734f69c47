package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/database"
	"github.com/vancomm/aplenty-server/internal/middleware"
)

type App struct {
	log        *logrus.Logger
	cfg        *config.App
	router     *http.ServeMux
	db         *pgxpool.Pool
	jwt        *config.JWT
	ws         *config.WebSocket
	migrations fs.FS
}

func New(log *logrus.Logger, cfg *config.App, migrations fs.FS) *App {
	return &App{
		log:        log,
		cfg:        cfg,
		router:     http.NewServeMux(),
		migrations: migrations,
	}
}

type schemaMigrator interface {
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// reportSchema logs the applied schema version and releases the migrator.
func reportSchema(log *logrus.Logger, m schemaMigrator) {
	if version, dirty, err := m.Version(); err == nil {
		log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("database schema ready")
	}
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		log.WithError(err).Warn("unable to close migrator")
	}
}

func (a *App) Start(ctx context.Context) error {
	db, migrator, err := database.ConnectAndMigrate(ctx, a.migrations)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer db.Close()
	a.db = db

	reportSchema(a.log, migrator)

	a.jwt, err = config.NewJWT()
	if err != nil {
		return err
	}
	if a.jwt == nil {
		a.log.Warn("JWT_SECRET is not set, rule set uploads are not authenticated")
	}

	a.ws, err = config.NewWebSocket()
	if err != nil {
		return err
	}

	a.loadRoutes()

	server := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", server.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) handler() http.Handler {
	var h http.Handler = a.router
	if a.cfg.BasePath != "" {
		h = http.StripPrefix(a.cfg.BasePath, h)
	}
	return middleware.Wrap(
		h,
		middleware.Auth(a.log, a.jwt),
		middleware.Cors(),
		middleware.Logging(a.log),
	)
}
