package storage

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	orderFile = "order.json"
	planFile  = "plan.json"
	doneFile  = ".done.lock"
)

// Subdirectories created inside every job folder.
var jobSubdirs = []string{"raw", "staged", "final", "logs"}

// imageExts lists the source photo extensions the store recognizes.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Store manages job folders under a single base directory.
type Store struct {
	baseDir    string
	log        zerolog.Logger
	httpClient *http.Client
}

// NewStore creates the base directory if needed and returns a store rooted
// there.
func NewStore(baseDir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir: %w", err)
	}
	return &Store{
		baseDir:    baseDir,
		log:        log.With().Str("component", "storage").Logger(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (s *Store) jobDir(jobID string) string {
	return filepath.Join(s.baseDir, jobID)
}

// JobExists reports whether a job folder with an order record exists.
func (s *Store) JobExists(jobID string) bool {
	_, err := os.Stat(filepath.Join(s.jobDir(jobID), orderFile))
	return err == nil
}

// IsComplete reports whether the job's delivery marker has been written.
func (s *Store) IsComplete(jobID string) bool {
	_, err := os.Stat(filepath.Join(s.jobDir(jobID), doneFile))
	return err == nil
}

// MarkComplete writes the delivery marker. The marker makes delivery
// idempotent across retries and restarts.
func (s *Store) MarkComplete(jobID string) error {
	path := filepath.Join(s.jobDir(jobID), doneFile)
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("storage: write completion marker: %w", err)
	}
	return nil
}

// CreateJob validates the input, allocates a job id, lays out the folder
// structure, and persists the initial order record.
func (s *Store) CreateJob(in NewJobInput) (*Order, error) {
	if _, err := mail.ParseAddress(in.ClientEmail); err != nil {
		return nil, &ValidationError{Field: "client email", Reason: "not a valid address"}
	}
	if len(in.Photos) == 0 {
		return nil, &ValidationError{Field: "photos", Reason: "at least one photo is required"}
	}

	jobID := NewJobID(in.Address)
	dir := s.jobDir(jobID)
	for _, sub := range jobSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create job dirs: %w", err)
		}
	}

	now := time.Now().UTC()
	order := &Order{
		JobID:            jobID,
		AirtableRecordID: in.AirtableRecordID,
		Client: ClientInfo{
			Name:  in.ClientName,
			Email: in.ClientEmail,
			Phone: in.ClientPhone,
		},
		Address:   in.Address,
		Source:    "fsbo_airtable",
		Style:     in.Style,
		Occupied:  in.Occupied,
		Comments:  in.Comments,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SaveOrder(order); err != nil {
		return nil, err
	}
	s.log.Info().Str("job_id", jobID).Str("address", in.Address).Int("photos", len(in.Photos)).Msg("job created")
	return order, nil
}

// SaveOrder writes the order record atomically and refreshes UpdatedAt.
func (s *Store) SaveOrder(order *Order) error {
	order.UpdatedAt = time.Now().UTC()
	return s.writeJSON(filepath.Join(s.jobDir(order.JobID), orderFile), order)
}

// LoadOrder reads the order record for a job.
func (s *Store) LoadOrder(jobID string) (*Order, error) {
	var order Order
	if err := s.readJSON(filepath.Join(s.jobDir(jobID), orderFile), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SavePlan writes the staging plan atomically and refreshes UpdatedAt.
func (s *Store) SavePlan(plan *Plan) error {
	plan.UpdatedAt = time.Now().UTC()
	return s.writeJSON(filepath.Join(s.jobDir(plan.JobID), planFile), plan)
}

// LoadPlan reads the staging plan for a job.
func (s *Store) LoadPlan(jobID string) (*Plan, error) {
	var plan Plan
	if err := s.readJSON(filepath.Join(s.jobDir(jobID), planFile), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// PlanExists reports whether a plan has been written for the job.
func (s *Store) PlanExists(jobID string) bool {
	_, err := os.Stat(filepath.Join(s.jobDir(jobID), planFile))
	return err == nil
}

// SetJobStatus updates the job status, and the error message when one is
// given. A non-empty message with a non-failed status records a warning.
func (s *Store) SetJobStatus(jobID string, status JobStatus, errMsg string) error {
	order, err := s.LoadOrder(jobID)
	if err != nil {
		return err
	}
	order.Status = status
	order.ErrorMessage = errMsg
	return s.SaveOrder(order)
}

// ListRawImagePaths returns the source photos of a job, sorted by name.
// Paths are relative to the job folder so plan.json stays valid when the
// base directory moves; resolve them with AbsolutePath.
func (s *Store) ListRawImagePaths(jobID string) ([]string, error) {
	rawDir := filepath.Join(s.jobDir(jobID), "raw")
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: list raw images: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join("raw", e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// AbsolutePath resolves a path relative to the job folder.
func (s *Store) AbsolutePath(jobID string, rel ...string) string {
	return filepath.Join(append([]string{s.jobDir(jobID)}, rel...)...)
}

// ListJobs returns all known orders, most recently updated first.
func (s *Store) ListJobs() ([]*Order, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: list jobs: %w", err)
	}
	var orders []*Order
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		order, err := s.LoadOrder(e.Name())
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].UpdatedAt.After(orders[j].UpdatedAt)
	})
	return orders, nil
}

// DeleteJob removes the job folder and everything in it.
func (s *Store) DeleteJob(jobID string) error {
	if !s.JobExists(jobID) {
		return ErrNotFound
	}
	if err := os.RemoveAll(s.jobDir(jobID)); err != nil {
		return fmt.Errorf("storage: delete job: %w", err)
	}
	s.log.Info().Str("job_id", jobID).Msg("job deleted")
	return nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
