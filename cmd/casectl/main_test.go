package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/state"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(apperror.Validation("bad input")))
	assert.Equal(t, 3, exitCode(apperror.NotFound("case", 7)))
	assert.Equal(t, 4, exitCode(apperror.TransitionNotPermitted("COMPLAINT", "RECEIVED", "CLOSED")))
	assert.Equal(t, 4, exitCode(apperror.State(apperror.CodeNoWorkersAvailable, "none")))
	assert.Equal(t, 1, exitCode(errors.New("connection refused")))
}

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AUDIT_SIGNING_KEY", "")
	t.Setenv("CATALOG_FILE", filepath.Join("..", "..", "configs", "catalog.yaml"))
}

func TestRunDemo(t *testing.T) {
	quietEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"demo"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var report DemoReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Workers, 3)
	require.NotNil(t, report.Batch)
	require.Len(t, report.Batch.Assignments, 5)

	w := report.Workers
	want := []int64{w[0].ID, w[1].ID, w[2].ID, w[0].ID, w[1].ID}
	for i, a := range report.Batch.Assignments {
		assert.Equal(t, want[i], a.WorkerID, "assignment %d", i)
	}
	assert.Equal(t, w[1].ID, report.Batch.LastWorkerID)

	require.Len(t, report.History, 4)
	assert.Equal(t, "RESOLVED", report.History[0].StateName)
	assert.Equal(t, state.InitialStateName, report.History[3].StateName)
	assert.Len(t, report.Duplicates, 4)
	require.NotNil(t, report.Summary)
	assert.Equal(t, int64(5), report.Summary.Total)
	assert.Equal(t, map[string]int64{"RESOLVED": 1, "RECEIVED": 4}, report.Summary.ByState)
}

func TestRunDemoWithMissingCatalog(t *testing.T) {
	quietEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"demo", "--file", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "missing.yaml")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	quietEnv(t)
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), []string{"teleport"}, &stdout, &stderr))
}

func TestRunRejectsBadConfig(t *testing.T) {
	quietEnv(t)
	t.Setenv("AUDIT_SIGNING_KEY", "zz")
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run(context.Background(), []string{"demo"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "AUDIT_SIGNING_KEY")
}
