package main

import (
	"github.com/querellas/casecore/internal/application/dispatch"
	"github.com/querellas/casecore/internal/application/lifecycle"
	workerapp "github.com/querellas/casecore/internal/application/worker"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/worker"
	"github.com/querellas/casecore/internal/infrastructure/catalogfile"
	"github.com/querellas/casecore/internal/infrastructure/memory"
)

// DemoCmd seeds an in-memory store, registers three caseworkers, opens five
// complaints at one address, dispatches them, walks the first one to
// RESOLVED and counts the complaints by state. Nothing touches the database.
type DemoCmd struct {
	File string `help:"Catalog definition to seed. Defaults to CATALOG_FILE."`
}

// DemoReport is what the demo prints.
type DemoReport struct {
	Workers    []*worker.Worker      `json:"workers"`
	Batch      *dispatch.BatchResult `json:"batch"`
	Walk       []*lifecycle.Result   `json:"walk"`
	History    []*state.HistoryEntry `json:"history"`
	Duplicates []*casefile.Case      `json:"duplicates"`
	Summary    *lifecycle.Summary    `json:"summary"`
}

func (c *DemoCmd) Run(app *App) error {
	path := c.File
	if path == "" {
		path = app.cfg.CatalogFile
	}
	def, err := catalogfile.Load(path)
	if err != nil {
		return err
	}

	svc := memoryServices(memory.NewStore(), app.cfg.AuditSigningKey, app.logger)
	ctx := app.ctx
	if _, err := svc.catalog.Seed(ctx, def); err != nil {
		return err
	}

	report := &DemoReport{}
	for _, name := range []string{"ana", "bruno", "carla"} {
		w, err := svc.workers.Register(ctx, workerapp.RegisterInput{
			Name:  name,
			Email: name + "@demo.invalid",
			Role:  worker.RoleCaseworker,
		})
		if err != nil {
			return err
		}
		report.Workers = append(report.Workers, w)
	}

	var caseIDs []int64
	for i := 0; i < 5; i++ {
		res, err := svc.lifecycle.OpenCase(ctx, lifecycle.OpenInput{
			Module:      state.ModuleComplaint,
			Address:     "Calle 10 # 4-12",
			Description: "noise after midnight",
		})
		if err != nil {
			return err
		}
		caseIDs = append(caseIDs, res.Case.ID)
	}

	report.Batch, err = svc.dispatcher.AssignBatch(ctx, caseIDs, nil)
	if err != nil {
		return err
	}

	first := caseIDs[0]
	for _, target := range []string{"ASSIGNED", "IN_PROGRESS", "RESOLVED"} {
		res, err := svc.lifecycle.ChangeState(ctx, state.ModuleComplaint, first, target, "demo step to "+target, nil)
		if err != nil {
			return err
		}
		report.Walk = append(report.Walk, res)
	}

	if report.History, err = svc.lifecycle.History(ctx, state.ModuleComplaint, first); err != nil {
		return err
	}
	if report.Duplicates, err = svc.finder.FindCandidates(ctx, first); err != nil {
		return err
	}
	if report.Summary, err = svc.lifecycle.Summarize(ctx, state.ModuleComplaint, state.Period{}); err != nil {
		return err
	}
	return app.Print(report)
}
