package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// ExportService covers asynchronous CSV exports.
type ExportService struct {
	c *Client
}

// Create enqueues an export. Month 0 exports the whole year.
func (s *ExportService) Create(ctx context.Context, year, month int) (api.ExportJobPayload, error) {
	var job api.ExportJobPayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/exports", nil, api.CreateExportRequest{
		Year:  year,
		Month: month,
	}, &job)
	return job, err
}

func (s *ExportService) Get(ctx context.Context, id uuid.UUID) (api.ExportJobPayload, error) {
	var job api.ExportJobPayload
	err := s.c.do(ctx, http.MethodGet, "/api/v1/exports/"+id.String(), nil, nil, &job)
	return job, err
}

// Wait polls the job until it leaves the queue or ctx ends. A failed job is
// returned with an error carrying the server-side reason.
func (s *ExportService) Wait(ctx context.Context, id uuid.UUID, interval time.Duration) (api.ExportJobPayload, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := s.Get(ctx, id)
		if err != nil {
			return api.ExportJobPayload{}, err
		}
		switch job.Status {
		case "done":
			return job, nil
		case "failed":
			return job, fmt.Errorf("export failed: %s", job.Error)
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
