package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DownloadSourceImages fetches the job's source photos into raw/ and returns
// their paths relative to the job folder. It fails on the first error; a job
// with missing photos must not proceed to staging.
func (s *Store) DownloadSourceImages(ctx context.Context, jobID string, photos []PhotoRef) ([]string, error) {
	rawDir := filepath.Join(s.jobDir(jobID), "raw")
	var paths []string
	for i, photo := range photos {
		name := sanitizeFilename(photo.Filename, i)
		dest := filepath.Join(rawDir, name)
		if err := s.downloadFile(ctx, photo.URL, dest); err != nil {
			return nil, fmt.Errorf("storage: download photo %d (%s): %w", i+1, name, err)
		}
		paths = append(paths, filepath.Join("raw", name))
		s.log.Debug().Str("job_id", jobID).Str("file", name).Msg("photo downloaded")
	}
	return paths, nil
}

func (s *Store) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// sanitizeFilename strips path components and unsafe characters from an
// attachment filename, falling back to a positional name.
func sanitizeFilename(name string, index int) string {
	name = filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." || strings.TrimLeft(cleaned, ".") == "" {
		return fmt.Sprintf("photo_%d.jpg", index+1)
	}
	return cleaned
}
