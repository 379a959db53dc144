package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Download streams a finished export into dir and returns the local path.
// The file name comes from the server's Content-Disposition header; the
// write is atomic so an interrupted download leaves nothing behind.
func (s *ExportService) Download(ctx context.Context, id uuid.UUID, dir string) (string, error) {
	resp, err := s.c.rawGet(ctx, "/api/v1/exports/"+id.String()+"/download")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	fileName := attachmentName(resp.Header.Get("Content-Disposition"))
	if fileName == "" {
		fileName = fmt.Sprintf("export-%s.csv", id)
	}
	target := filepath.Join(dir, fileName)

	tmp, err := os.CreateTemp(dir, fileName+".part-*")
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close download: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("finalize download: %w", err)
	}
	return target, nil
}

// attachmentName extracts the filename from a Content-Disposition header.
// Anything path-like is reduced to its base name.
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}
