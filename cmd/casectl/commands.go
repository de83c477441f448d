package main

import (
	"time"

	"github.com/querellas/casecore/internal/application/lifecycle"
	workerapp "github.com/querellas/casecore/internal/application/worker"
	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/worker"
	"github.com/querellas/casecore/internal/infrastructure/catalogfile"
	"github.com/querellas/casecore/internal/infrastructure/postgres"
	"github.com/querellas/casecore/internal/migrations"
)

type MigrateCmd struct {
	Dir string `help:"Directory of *.sql files to run instead of the built-in schema."`
}

func (c *MigrateCmd) Run(app *App) error {
	pool, err := app.connect()
	if err != nil {
		return err
	}
	dir := c.Dir
	if dir == "" {
		dir = app.cfg.MigrationsDir
	}
	if dir != "" {
		err = postgres.RunMigrations(app.ctx, pool, dir)
	} else {
		err = postgres.RunMigrationsFS(app.ctx, pool, migrations.Files)
	}
	if err != nil {
		return err
	}
	app.logger.Info().Msg("migrations applied")
	return app.Print(map[string]string{"status": "migrated"})
}

type CatalogCmd struct {
	Seed CatalogSeedCmd `cmd:"" help:"Load a catalog file into the database."`
	Show CatalogShowCmd `cmd:"" help:"Print the stored catalog."`
}

type CatalogSeedCmd struct {
	File string `help:"Catalog definition (YAML or JSON). Defaults to CATALOG_FILE."`
}

func (c *CatalogSeedCmd) Run(app *App) error {
	path := c.File
	if path == "" {
		path = app.cfg.CatalogFile
	}
	def, err := catalogfile.Load(path)
	if err != nil {
		return err
	}
	svc, err := app.backend()
	if err != nil {
		return err
	}
	res, err := svc.catalog.Seed(app.ctx, def)
	if err != nil {
		return err
	}
	return app.Print(res)
}

type CatalogShowCmd struct {
	Module string `help:"Only this module."`
	YAML   bool   `name:"yaml" help:"Print in catalog file format."`
}

func (c *CatalogShowCmd) Run(app *App) error {
	modules := state.Modules()
	if c.Module != "" {
		m, err := state.ParseModule(c.Module)
		if err != nil {
			return apperror.Validation("%v", err)
		}
		modules = []state.Module{m}
	}
	svc, err := app.backend()
	if err != nil {
		return err
	}
	def := state.Definition{}
	for _, m := range modules {
		md, err := svc.catalog.Describe(app.ctx, m)
		if err != nil {
			return err
		}
		def.Modules = append(def.Modules, *md)
	}
	if c.YAML {
		data, err := catalogfile.Marshal(def)
		if err != nil {
			return err
		}
		_, err = app.out.Write(data)
		return err
	}
	return app.Print(def)
}

type CaseCmd struct {
	Open       CaseOpenCmd       `cmd:"" help:"Open a case in its initial state."`
	State      CaseStateCmd      `cmd:"" help:"Move a case to another state."`
	Current    CaseCurrentCmd    `cmd:"" help:"Print a case's current state."`
	History    CaseHistoryCmd    `cmd:"" help:"Print a case's state history, newest first."`
	Next       CaseNextCmd       `cmd:"" help:"List the states a case may move to."`
	Duplicates CaseDuplicatesCmd `cmd:"" help:"List cases that may report the same incident."`
	Assign     CaseAssignCmd     `cmd:"" help:"Assign a case to a specific caseworker."`
	List       CaseListCmd       `cmd:"" help:"List cases by current state."`
	Summary    CaseSummaryCmd    `cmd:"" help:"Count cases by current state."`
}

type CaseOpenCmd struct {
	Module      string  `arg:"" help:"COMPLAINT or DISPATCH."`
	Address     string  `required:"" help:"Incident address."`
	Description string  `help:"Free-text description."`
	Reference   string  `help:"External reference; generated when empty."`
	Category    *string `help:"Category tag."`
	Zone        *string `help:"Zone tag."`
}

func (c *CaseOpenCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	res, err := svc.lifecycle.OpenCase(app.ctx, lifecycle.OpenInput{
		Module:      state.Module(c.Module),
		Reference:   c.Reference,
		Address:     c.Address,
		Description: c.Description,
		Category:    c.Category,
		Zone:        c.Zone,
		ActorID:     app.Actor(),
	})
	if err != nil {
		return err
	}
	return app.Print(res)
}

// CaseRef addresses a case within its module.
type CaseRef struct {
	Module string `arg:"" help:"COMPLAINT or DISPATCH."`
	ID     int64  `arg:"" help:"Case id."`
}

// PeriodFlags bound case creation dates. Both days are included.
type PeriodFlags struct {
	From time.Time `format:"2006-01-02" help:"Earliest creation day (YYYY-MM-DD)."`
	To   time.Time `format:"2006-01-02" help:"Latest creation day (YYYY-MM-DD)."`
}

func (p PeriodFlags) period() state.Period {
	var out state.Period
	if !p.From.IsZero() {
		from := p.From.UTC()
		out.From = &from
	}
	if !p.To.IsZero() {
		to := p.To.UTC().Add(24*time.Hour - time.Nanosecond)
		out.To = &to
	}
	return out
}

type CaseListCmd struct {
	Module      string `arg:"" help:"COMPLAINT or DISPATCH."`
	State       string `required:"" help:"Current state to filter by."`
	PeriodFlags `embed:""`
}

func (c *CaseListCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	cases, err := svc.lifecycle.ListByState(app.ctx, state.Module(c.Module), c.State, c.period())
	if err != nil {
		return err
	}
	return app.Print(cases)
}

type CaseSummaryCmd struct {
	Module      string `arg:"" help:"COMPLAINT or DISPATCH."`
	PeriodFlags `embed:""`
}

func (c *CaseSummaryCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	sum, err := svc.lifecycle.Summarize(app.ctx, state.Module(c.Module), c.period())
	if err != nil {
		return err
	}
	return app.Print(sum)
}

type CaseStateCmd struct {
	CaseRef `embed:""`
	Target string `arg:"" help:"Target state name."`
	Reason string `required:"" help:"Why the case changes state."`
}

func (c *CaseStateCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	res, err := svc.lifecycle.ChangeState(app.ctx, state.Module(c.Module), c.ID, c.Target, c.Reason, app.Actor())
	if err != nil {
		return err
	}
	return app.Print(res)
}

type CaseCurrentCmd struct {
	CaseRef `embed:""`
}

func (c *CaseCurrentCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	name, err := svc.lifecycle.CurrentState(app.ctx, state.Module(c.Module), c.ID)
	if err != nil {
		return err
	}
	return app.Print(map[string]any{"caseId": c.ID, "state": name})
}

type CaseHistoryCmd struct {
	CaseRef `embed:""`
}

func (c *CaseHistoryCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	entries, err := svc.lifecycle.History(app.ctx, state.Module(c.Module), c.ID)
	if err != nil {
		return err
	}
	return app.Print(entries)
}

type CaseNextCmd struct {
	CaseRef `embed:""`
}

func (c *CaseNextCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	next, err := svc.lifecycle.NextStates(app.ctx, state.Module(c.Module), c.ID)
	if err != nil {
		return err
	}
	return app.Print(next)
}

type CaseDuplicatesCmd struct {
	ID int64 `arg:"" help:"Case id."`
}

func (c *CaseDuplicatesCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	found, err := svc.finder.FindCandidates(app.ctx, c.ID)
	if err != nil {
		return err
	}
	return app.Print(found)
}

type CaseAssignCmd struct {
	ID     int64 `arg:"" help:"Case id."`
	Worker int64 `arg:"" help:"Caseworker id."`
}

func (c *CaseAssignCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	updated, err := svc.dispatcher.AssignOne(app.ctx, c.ID, c.Worker, app.Actor())
	if err != nil {
		return err
	}
	return app.Print(updated)
}

type DispatchCmd struct {
	Batch DispatchBatchCmd `cmd:"" help:"Assign cases round-robin among active caseworkers."`
}

type DispatchBatchCmd struct {
	IDs []int64 `arg:"" name:"case-id" help:"Case ids in assignment order."`
}

func (c *DispatchBatchCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	res, err := svc.dispatcher.AssignBatch(app.ctx, c.IDs, app.Actor())
	if err != nil {
		return err
	}
	return app.Print(res)
}

type WorkerCmd struct {
	Add        WorkerAddCmd        `cmd:"" help:"Register a worker."`
	Activate   WorkerActivateCmd   `cmd:"" help:"Make a worker eligible for assignments."`
	Deactivate WorkerDeactivateCmd `cmd:"" help:"Remove a worker from the assignment rotation."`
	List       WorkerListCmd       `cmd:"" help:"List workers."`
}

type WorkerAddCmd struct {
	Name   string  `required:""`
	Email  string  `required:""`
	Role   string  `default:"CASEWORKER" help:"CASEWORKER, DIRECTOR or CLERK."`
	Status string  `default:"ACTIVE" help:"ACTIVE or INACTIVE."`
	Zone   *string `help:"URBAN or OUTLYING."`
}

func (c *WorkerAddCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	w, err := svc.workers.Register(app.ctx, workerapp.RegisterInput{
		Name:   c.Name,
		Email:  c.Email,
		Role:   worker.Role(c.Role),
		Status: worker.Status(c.Status),
		Zone:   c.Zone,
	})
	if err != nil {
		return err
	}
	return app.Print(w)
}

type WorkerActivateCmd struct {
	ID int64 `arg:"" help:"Worker id."`
}

func (c *WorkerActivateCmd) Run(app *App) error {
	return setWorkerStatus(app, c.ID, worker.StatusActive)
}

type WorkerDeactivateCmd struct {
	ID int64 `arg:"" help:"Worker id."`
}

func (c *WorkerDeactivateCmd) Run(app *App) error {
	return setWorkerStatus(app, c.ID, worker.StatusInactive)
}

func setWorkerStatus(app *App, id int64, status worker.Status) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	w, err := svc.workers.SetStatus(app.ctx, id, status, app.Actor())
	if err != nil {
		return err
	}
	return app.Print(w)
}

type WorkerListCmd struct {
	All    bool   `help:"Include every role and status."`
	Role   string `help:"Filter by role (with --all)."`
	Status string `help:"Filter by status (with --all)."`
	Zone   string `help:"Filter by zone (with --all)."`
	Limit  int    `help:"Maximum rows; 0 for all."`
	Offset int    `help:"Rows to skip."`
}

func (c *WorkerListCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	if !c.All {
		ws, err := svc.workers.ListCaseworkers(app.ctx, true)
		if err != nil {
			return err
		}
		return app.Print(ws)
	}
	var filter worker.Filter
	if c.Role != "" {
		role := worker.Role(c.Role)
		filter.Role = &role
	}
	if c.Status != "" {
		status := worker.Status(c.Status)
		filter.Status = &status
	}
	if c.Zone != "" {
		zone := c.Zone
		filter.Zone = &zone
	}
	ws, err := svc.workers.List(app.ctx, filter, c.Limit, c.Offset)
	if err != nil {
		return err
	}
	return app.Print(ws)
}

type AuditCmd struct {
	History AuditHistoryCmd `cmd:"" help:"Print an entity's audit trail with signature checks."`
}

type AuditHistoryCmd struct {
	EntityType string `arg:"" help:"COMPLAINT, DISPATCH, WORKER, CURSOR or CATALOG."`
	EntityID   string `arg:"" help:"Entity id."`
}

func (c *AuditHistoryCmd) Run(app *App) error {
	svc, err := app.backend()
	if err != nil {
		return err
	}
	logs, err := svc.audit.EntityHistory(app.ctx, audit.EntityType(c.EntityType), c.EntityID)
	if err != nil {
		return err
	}
	return app.Print(logs)
}
