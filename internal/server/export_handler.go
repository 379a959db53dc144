package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/amqp"
	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if s.publisher == nil {
		respondError(w, http.StatusServiceUnavailable, "exports are not enabled")
		return
	}

	var req api.CreateExportRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := core.ExportJob{
		ID:        uuid.New(),
		OwnerID:   userID,
		Status:    core.ExportPending,
		Year:      req.Year,
		Month:     req.Month,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateExportJob(r.Context(), job); err != nil {
		respondStoreError(w, err)
		return
	}

	if err := s.publisher.PublishExportJob(r.Context(), amqp.NewExportJobMessage(job.ID, userID)); err != nil {
		s.log.ErrorContext(r.Context(), "Export job publish failed",
			applog.FieldExportID, job.ID,
			applog.FieldError, err)
		job.Status = core.ExportFailed
		job.Error = "could not enqueue job"
		if uerr := s.store.UpdateExportJob(r.Context(), job); uerr != nil {
			s.log.ErrorContext(r.Context(), "Export job status update failed",
				applog.FieldExportID, job.ID,
				applog.FieldError, uerr)
		}
		respondError(w, http.StatusBadGateway, "could not enqueue export job")
		return
	}

	s.log.InfoContext(r.Context(), "Export job enqueued",
		applog.FieldUserID, userID,
		applog.FieldExportID, job.ID,
		applog.FieldYear, job.Year,
		applog.FieldMonth, job.Month)
	respondJSON(w, http.StatusAccepted, toExportPayload(job))
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedExport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toExportPayload(job))
}

func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedExport(w, r)
	if !ok {
		return
	}
	if job.Status != core.ExportDone || job.FileName == "" {
		respondError(w, http.StatusConflict, "export is not ready")
		return
	}

	// FileName is written by the worker but Base guards against a
	// tampered row reaching the filesystem.
	path := filepath.Join(s.exportDir, filepath.Base(job.FileName))
	f, err := os.Open(path)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Export file missing",
			applog.FieldExportID, job.ID,
			applog.FieldError, err)
		respondError(w, http.StatusNotFound, "export file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(job.FileName)+`"`)
	http.ServeContent(w, r, job.FileName, job.CompletedAt, f)
}

func (s *Server) ownedExport(w http.ResponseWriter, r *http.Request) (core.ExportJob, bool) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid export id")
		return core.ExportJob{}, false
	}

	job, err := s.store.GetExportJob(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return core.ExportJob{}, false
	}
	if job.OwnerID != userID {
		respondError(w, http.StatusNotFound, "not found")
		return core.ExportJob{}, false
	}
	return job, true
}
