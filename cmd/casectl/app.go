package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	auditapp "github.com/querellas/casecore/internal/application/audit"
	"github.com/querellas/casecore/internal/application/catalog"
	"github.com/querellas/casecore/internal/application/dispatch"
	"github.com/querellas/casecore/internal/application/duplicate"
	"github.com/querellas/casecore/internal/application/lifecycle"
	workerapp "github.com/querellas/casecore/internal/application/worker"
	"github.com/querellas/casecore/internal/config"
	"github.com/querellas/casecore/internal/infrastructure/memory"
	"github.com/querellas/casecore/internal/infrastructure/postgres"
)

// App carries what commands share. The database is opened on first use.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger zerolog.Logger
	out    io.Writer
	actor  int64

	pool *pgxpool.Pool
	svc  *services
}

type services struct {
	catalog    *catalog.Service
	lifecycle  *lifecycle.Service
	dispatcher *dispatch.Dispatcher
	finder     *duplicate.Finder
	workers    *workerapp.Service
	audit      *auditapp.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer, actor int64) *App {
	return &App{ctx: ctx, cfg: cfg, logger: logger, out: out, actor: actor}
}

// Actor returns the acting worker id, or nil for system changes.
func (a *App) Actor() *int64 {
	if a.actor == 0 {
		return nil
	}
	id := a.actor
	return &id
}

func (a *App) connect() (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := postgres.NewPool(a.ctx, a.cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns:        a.cfg.MaxConns,
		MaxConnIdleTime: a.cfg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	a.pool = pool
	return pool, nil
}

// backend wires the application services onto PostgreSQL.
func (a *App) backend() (*services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	pool, err := a.connect()
	if err != nil {
		return nil, err
	}

	// repositories
	txm := postgres.NewTxManager(pool)
	cases := postgres.NewCaseRepository(pool)
	workers := postgres.NewWorkerRepository(pool)

	// services
	auditSvc := auditapp.NewService(postgres.NewAuditRepository(pool), a.logger, a.cfg.AuditSigningKey)
	catalogSvc := catalog.NewService(txm, postgres.NewStateRepository(pool), postgres.NewTransitionRepository(pool), a.logger).WithRecorder(auditSvc)
	a.svc = &services{
		catalog:    catalogSvc,
		lifecycle:  lifecycle.NewService(txm, catalogSvc, cases, postgres.NewHistoryRepository(pool), auditSvc, a.logger),
		dispatcher: dispatch.NewDispatcher(txm, postgres.NewSettingStore(pool), cases, workers, auditSvc, a.logger),
		finder:     duplicate.NewFinder(cases, cases, a.logger),
		workers:    workerapp.NewService(txm, workers, auditSvc, a.logger),
		audit:      auditSvc,
	}
	return a.svc, nil
}

// memoryServices wires the application services onto a fresh in-memory store.
func memoryServices(store *memory.Store, signKey []byte, logger zerolog.Logger) *services {
	auditSvc := auditapp.NewService(store.Audit(), logger, signKey)
	catalogSvc := catalog.NewService(store, store.States(), store.Transitions(), logger).WithRecorder(auditSvc)
	return &services{
		catalog:    catalogSvc,
		lifecycle:  lifecycle.NewService(store, catalogSvc, store.Cases(), store.History(), auditSvc, logger),
		dispatcher: dispatch.NewDispatcher(store, store.Settings(), store.Cases(), store.Workers(), auditSvc, logger),
		finder:     duplicate.NewFinder(store.Cases(), store.Cases(), logger),
		workers:    workerapp.NewService(store, store.Workers(), auditSvc, logger),
		audit:      auditSvc,
	}
}

// Print writes v as indented JSON.
func (a *App) Print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
