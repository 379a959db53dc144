// Package worker turns queued export jobs into CSV files.
package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tejaperfect/expensiver1-sub002/internal/amqp"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
	"github.com/tejaperfect/expensiver1-sub002/internal/sheets"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

const jobTimeout = 30 * time.Second

var csvHeader = []string{"date", "description", "amount", "category"}

// JobConsumer delivers export job messages until the context ends.
type JobConsumer interface {
	ConsumeExportJobs(ctx context.Context, handler func(*amqp.ExportJobMessage) error) error
}

type Worker struct {
	store     storage.Store
	consumer  JobConsumer
	exportDir string
	appender  sheets.RowAppender // optional mirror of finished exports
	log       *applog.Logger
}

func New(store storage.Store, consumer JobConsumer, exportDir string, appender sheets.RowAppender, logger *applog.Logger) *Worker {
	return &Worker{
		store:     store,
		consumer:  consumer,
		exportDir: exportDir,
		appender:  appender,
		log:       logger.WithComponent(applog.ComponentWorker),
	}
}

// Run consumes export jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Export worker started", "export_dir", w.exportDir)
	return w.consumer.ConsumeExportJobs(ctx, func(msg *amqp.ExportJobMessage) error {
		return w.Handle(ctx, msg)
	})
}

// Handle processes one export job message. A returned error requeues the
// message, so only failures to load the job bubble up; everything after
// that marks the job failed instead.
func (w *Worker) Handle(ctx context.Context, msg *amqp.ExportJobMessage) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	job, err := w.store.GetExportJob(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.log.Warn("Export job message for unknown job", applog.FieldExportID, msg.JobID)
			return nil
		}
		return fmt.Errorf("load export job %s: %w", msg.JobID, err)
	}
	if job.Status != core.ExportPending {
		w.log.Warn("Export job already handled",
			applog.FieldExportID, job.ID,
			"status", job.Status)
		return nil
	}

	job.Status = core.ExportProcessing
	if err := w.store.UpdateExportJob(ctx, job); err != nil {
		return fmt.Errorf("mark job %s processing: %w", job.ID, err)
	}

	fileName, err := w.export(ctx, job)
	if err != nil {
		w.log.Error("Export job failed",
			applog.FieldExportID, job.ID,
			applog.FieldError, err)
		job.Status = core.ExportFailed
		job.Error = err.Error()
		job.CompletedAt = time.Now().UTC()
		if uerr := w.store.UpdateExportJob(ctx, job); uerr != nil {
			return fmt.Errorf("mark job %s failed: %w", job.ID, uerr)
		}
		return nil
	}

	job.Status = core.ExportDone
	job.FileName = fileName
	job.CompletedAt = time.Now().UTC()
	if err := w.store.UpdateExportJob(ctx, job); err != nil {
		return fmt.Errorf("mark job %s done: %w", job.ID, err)
	}

	w.log.Info("Export job completed",
		applog.FieldExportID, job.ID,
		applog.FieldUserID, job.OwnerID,
		"file", fileName)
	return nil
}

// export renders the job's expenses as CSV and returns the file name.
func (w *Worker) export(ctx context.Context, job core.ExportJob) (string, error) {
	expenses, err := w.store.ListExpenses(ctx, storage.ExpenseFilter{
		OwnerID: job.OwnerID,
		Year:    job.Year,
		Month:   job.Month,
	})
	if err != nil {
		return "", fmt.Errorf("list expenses: %w", err)
	}

	fileName := exportFileName(job)
	if err := w.writeCSV(fileName, expenses); err != nil {
		return "", err
	}

	if w.appender != nil {
		if err := w.appender.AppendRows(ctx, sheetRows(expenses)); err != nil {
			// The CSV is the deliverable, the sheet is best effort.
			w.log.Warn("Sheet mirror failed",
				applog.FieldExportID, job.ID,
				applog.FieldError, err)
		}
	}

	return fileName, nil
}

func exportFileName(job core.ExportJob) string {
	suffix := job.ID.String()[:8]
	if job.Month != 0 {
		return fmt.Sprintf("expenses-%d-%02d-%s.csv", job.Year, job.Month, suffix)
	}
	return fmt.Sprintf("expenses-%d-%s.csv", job.Year, suffix)
}

// writeCSV writes atomically via a temp file so a crashed job never leaves
// a half-written export behind.
func (w *Worker) writeCSV(fileName string, expenses []core.Expense) error {
	tmp, err := os.CreateTemp(w.exportDir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		row := []string{
			e.Date.Format("2006-01-02"),
			e.Description,
			core.FormatCents(e.Amount.Cents),
			e.Category,
		}
		if err := cw.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.exportDir, fileName)); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}

func sheetRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []any{
			e.Date.Format("2006-01-02"),
			e.Description,
			core.FormatCents(e.Amount.Cents),
			e.Category,
		})
	}
	return rows
}
