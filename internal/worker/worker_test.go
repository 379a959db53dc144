package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/amqp"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

type recordingAppender struct {
	rows [][]any
	err  error
}

func (a *recordingAppender) AppendRows(_ context.Context, rows [][]any) error {
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, rows...)
	return nil
}

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func seedJob(t *testing.T, store *storage.MemoryStore, year, month int) (core.ExportJob, uuid.UUID) {
	t.Helper()

	owner := uuid.New()
	job := core.ExportJob{
		ID:        uuid.New(),
		OwnerID:   owner,
		Status:    core.ExportPending,
		Year:      year,
		Month:     month,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateExportJob(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job, owner
}

func seedExpense(t *testing.T, store *storage.MemoryStore, owner uuid.UUID, date core.Date, desc string, cents int64) {
	t.Helper()

	err := store.CreateExpense(context.Background(), core.Expense{
		ID:          uuid.New(),
		OwnerID:     owner,
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    "Food",
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
}

func TestHandleWritesCSV(t *testing.T) {
	store := storage.NewMemoryStore()
	dir := t.TempDir()
	w := New(store, nil, dir, nil, testLogger())

	job, owner := seedJob(t, store, 2026, 8)
	seedExpense(t, store, owner, core.NewDate(2026, 8, 15), "Groceries", 4250)
	seedExpense(t, store, owner, core.NewDate(2026, 7, 1), "Out of range", 999)

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(job.ID, owner)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, err := store.GetExportJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != core.ExportDone {
		t.Fatalf("status = %q, want %q (error %q)", got.Status, core.ExportDone, got.Error)
	}
	if got.FileName == "" || got.CompletedAt.IsZero() {
		t.Fatalf("job not finalized: %+v", got)
	}

	f, err := os.Open(filepath.Join(dir, got.FileName))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header plus one expense", len(records))
	}
	want := []string{"2026-08-15", "Groceries", "42.50", "Food"}
	for i, cell := range want {
		if records[1][i] != cell {
			t.Errorf("row[%d] = %q, want %q", i, records[1][i], cell)
		}
	}
}

func TestHandleWholeYear(t *testing.T) {
	store := storage.NewMemoryStore()
	dir := t.TempDir()
	w := New(store, nil, dir, nil, testLogger())

	job, owner := seedJob(t, store, 2026, 0)
	seedExpense(t, store, owner, core.NewDate(2026, 1, 10), "January", 100)
	seedExpense(t, store, owner, core.NewDate(2026, 12, 10), "December", 200)
	seedExpense(t, store, owner, core.NewDate(2025, 6, 10), "Other year", 300)

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(job.ID, owner)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, _ := store.GetExportJob(context.Background(), job.ID)
	f, err := os.Open(filepath.Join(dir, got.FileName))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("rows = %d, want header plus two expenses", len(records))
	}
}

func TestHandleMirrorsToSheet(t *testing.T) {
	store := storage.NewMemoryStore()
	appender := &recordingAppender{}
	w := New(store, nil, t.TempDir(), appender, testLogger())

	job, owner := seedJob(t, store, 2026, 8)
	seedExpense(t, store, owner, core.NewDate(2026, 8, 15), "Groceries", 4250)

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(job.ID, owner)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(appender.rows) != 1 {
		t.Errorf("appended rows = %d, want 1", len(appender.rows))
	}
}

func TestHandleSheetFailureDoesNotFailJob(t *testing.T) {
	store := storage.NewMemoryStore()
	appender := &recordingAppender{err: errors.New("quota exceeded")}
	w := New(store, nil, t.TempDir(), appender, testLogger())

	job, owner := seedJob(t, store, 2026, 8)
	seedExpense(t, store, owner, core.NewDate(2026, 8, 15), "Groceries", 4250)

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(job.ID, owner)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, _ := store.GetExportJob(context.Background(), job.ID)
	if got.Status != core.ExportDone {
		t.Errorf("status = %q, want %q", got.Status, core.ExportDone)
	}
}

func TestHandleUnknownJobIsDropped(t *testing.T) {
	store := storage.NewMemoryStore()
	w := New(store, nil, t.TempDir(), nil, testLogger())

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(uuid.New(), uuid.New())); err != nil {
		t.Errorf("unknown job should be dropped, got %v", err)
	}
}

func TestHandleSkipsNonPendingJobs(t *testing.T) {
	store := storage.NewMemoryStore()
	w := New(store, nil, t.TempDir(), nil, testLogger())

	job, owner := seedJob(t, store, 2026, 8)
	job.Status = core.ExportDone
	if err := store.UpdateExportJob(context.Background(), job); err != nil {
		t.Fatalf("update job: %v", err)
	}

	if err := w.Handle(context.Background(), amqp.NewExportJobMessage(job.ID, owner)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, _ := store.GetExportJob(context.Background(), job.ID)
	if got.Status != core.ExportDone {
		t.Errorf("redelivery must not touch a finished job, status = %q", got.Status)
	}
}
