package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aysualkaya/assistant/internal/catalog"
	"github.com/aysualkaya/assistant/internal/config"
	"github.com/aysualkaya/assistant/internal/database"
	"github.com/aysualkaya/assistant/internal/database/mysql"
	"github.com/aysualkaya/assistant/internal/database/postgres"
	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/filestore"
	"github.com/aysualkaya/assistant/internal/filestore/minio"
	"github.com/aysualkaya/assistant/internal/logger"
	"github.com/aysualkaya/assistant/internal/rules"
	"github.com/aysualkaya/assistant/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to assistant.yaml (optional)")
	flag.Parse()

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.New(logger.DefaultConfig()).Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	log := logger.New(cfg.Logger)
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := dialect.FromName(cfg.Dialect)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Dialect:       d,
		FuzzyDistance: cfg.FuzzyDistance,
		Correction:    cfg.Correction,
		Log:           log,
	}

	// Warehouse connection: catalog source plus executor.
	if cfg.Database != nil {
		db, src, placeholder, err := connectWarehouse(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.Exec = database.NewExecutor(db, cfg.Database.QueryTimeout)
		deps.Source = src
		deps.Placeholder = placeholder
	}

	// Snapshot archive: fallback catalog source when no warehouse is up,
	// and the persistence target after live introspection.
	var archive filestore.Store
	if cfg.Filestore != nil {
		store, err := minio.New(ctx, cfg.Filestore)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		archive = store

		if deps.Source == nil {
			info, err := store.Stat(ctx, cfg.Filestore.Bucket, cfg.Filestore.SnapshotKey)
			if err != nil {
				return err
			}
			log.With().Str("key", info.Key).Any("last_modified", info.LastModified).Logger().
				Info("using archived catalog snapshot")
			deps.Source = catalog.NewObjectSource(store, cfg.Filestore.Bucket, cfg.Filestore.SnapshotKey)
		}
	}

	if deps.Source == nil {
		return errors.New("no catalog source: configure a database or a filestore snapshot")
	}

	log.Info("loading schema catalog")
	cat, err := catalog.Load(ctx, deps.Source)
	if err != nil {
		return err
	}
	deps.Store = catalog.NewStore(cat)
	log.With().Int("tables", len(cat.Tables())).Logger().Info("catalog ready")

	// Archive the freshly introspected snapshot for warehouse-less restarts.
	if archive != nil && cfg.Database != nil {
		if err := catalog.SaveSnapshot(ctx, archive, cfg.Filestore.Bucket, cfg.Filestore.SnapshotKey, cat.Snapshot()); err != nil {
			log.With().Err(err).Logger().Warn("archiving catalog snapshot failed")
		}
	}

	ruleSet := rules.Defaults()
	if cfg.RulesFile != "" {
		extra, err := rules.LoadFile(cfg.RulesFile)
		if err != nil {
			return err
		}
		ruleSet = append(ruleSet, extra...)
	}
	deps.Engine, err = rules.NewEngine(d, ruleSet)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(deps).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.With().Str("addr", cfg.Server.Addr).Logger().Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func connectWarehouse(ctx context.Context, cfg *database.Config) (database.DB, catalog.Source, database.Placeholder, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		db, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, nil, 0, err
		}
		return db, database.NewSource(db), database.PlaceholderDollar, nil
	case database.DriverMySQL:
		db, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, nil, 0, err
		}
		return db, database.NewSource(db), database.PlaceholderQuestion, nil
	default:
		return nil, nil, 0, &database.DBError{
			Kind:    database.ErrKindInvalidInput,
			Message: "unsupported driver " + string(cfg.Driver),
		}
	}
}
