// Package storage persists staging jobs as per-job folders on disk. Each job
// owns a directory holding the order record, the staging plan, raw and staged
// images, and the final deliverable archive.
package storage

import (
	"errors"
	"time"

	"stagevision/internal/styles"
)

// ErrNotFound is returned when a job or record does not exist.
var ErrNotFound = errors.New("not found")

// JobStatus tracks a job through the pipeline.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobIngested  JobStatus = "ingested"
	JobPlanning  JobStatus = "planning"
	JobPlanned   JobStatus = "planned"
	JobStaging   JobStatus = "staging"
	JobStaged    JobStatus = "staged"
	JobPackaging JobStatus = "packaging"
	JobDelivered JobStatus = "delivered"
	JobFailed    JobStatus = "failed"
)

// ImageStatus tracks a single photo within a job.
type ImageStatus string

const (
	ImagePending    ImageStatus = "pending"
	ImagePlanned    ImageStatus = "planned"
	ImageStaging    ImageStatus = "staging"
	ImageStaged     ImageStatus = "staged"
	ImageNeedsRegen ImageStatus = "needs_regen"
	ImageFailed     ImageStatus = "failed"
)

// ClientInfo identifies the person the deliverable goes to.
type ClientInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Order is the durable record of a staging request. It is written to
// order.json at job creation and updated as the job progresses.
type Order struct {
	JobID            string     `json:"job_id"`
	AirtableRecordID string     `json:"airtable_record_id,omitempty"`
	Client           ClientInfo `json:"client"`
	Address          string     `json:"address"`
	Source           string     `json:"source"`
	Style            styles.Key `json:"style"`
	Occupied         bool       `json:"occupied"`
	Comments         string     `json:"comments,omitempty"`
	Status           JobStatus  `json:"status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ImagePlan is the analysis result and staging state for one photo.
// SourcePath and OutputPath are relative to the job folder.
type ImagePlan struct {
	ID                 string      `json:"id"`
	SourcePath         string      `json:"source_path"`
	RoomType           string      `json:"room_type,omitempty"`
	IsOccupied         bool        `json:"is_occupied"`
	Issues             []string    `json:"issues,omitempty"`
	StagingInstruction string      `json:"staging_instruction,omitempty"`
	Status             ImageStatus `json:"status"`
	OutputPath         string      `json:"output_path,omitempty"`
	ErrorMessage       string      `json:"error_message,omitempty"`
}

// Plan is the per-job staging plan written to plan.json.
type Plan struct {
	JobID     string      `json:"job_id"`
	Images    []ImagePlan `json:"images"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ImageByID returns a pointer into the plan's image slice, or nil.
func (p *Plan) ImageByID(id string) *ImagePlan {
	for i := range p.Images {
		if p.Images[i].ID == id {
			return &p.Images[i]
		}
	}
	return nil
}

// PhotoRef points at a source photo to download.
type PhotoRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// NewJobInput carries everything needed to create a job folder.
type NewJobInput struct {
	AirtableRecordID string
	ClientName       string
	ClientEmail      string
	ClientPhone      string
	Address          string
	Style            styles.Key
	Occupied         bool
	Comments         string
	Photos           []PhotoRef
}

// ValidationError reports a rejected job creation request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "storage: invalid " + e.Field + ": " + e.Reason
}
