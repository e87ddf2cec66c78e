package stager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stagevision/internal/storage"
	"stagevision/internal/styles"
)

// jobTimeout bounds a full background pipeline run.
const jobTimeout = 30 * time.Minute

// Handler bundles dependencies for the staging endpoints.
type Handler struct {
	Store    *storage.Store
	Pipeline *Pipeline
	Runner   *Runner
	Log      zerolog.Logger
}

// WebhookRequest is the intake payload posted by the Airtable automation.
type WebhookRequest struct {
	RecordID string `json:"record_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Style    string `json:"style"`
	Occupied bool   `json:"occupied"`
	Comments string `json:"comments"`
	Photos   []struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	} `json:"photos"`
}

// JobResponse is the job view returned by the status endpoints.
type JobResponse struct {
	JobID        string            `json:"job_id"`
	Address      string            `json:"address"`
	Style        string            `json:"style"`
	Status       storage.JobStatus `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Images       []imageResponse   `json:"images,omitempty"`
}

type imageResponse struct {
	ID           string              `json:"id"`
	RoomType     string              `json:"room_type,omitempty"`
	Status       storage.ImageStatus `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// Webhook handles POST /api/stager/airtable/webhook. It validates the payload,
// creates the job folder, and kicks off background processing; the automation
// gets an immediate 202 with the job id.
func (h Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	styleKey, known := styles.Resolve(req.Style)
	if !known && req.Style != "" {
		h.Log.Warn().Str("style", req.Style).Msg("unrecognized style label, using default")
	}

	photos := make([]storage.PhotoRef, 0, len(req.Photos))
	for _, p := range req.Photos {
		photos = append(photos, storage.PhotoRef{URL: p.URL, Filename: p.Filename})
	}

	order, err := h.Store.CreateJob(storage.NewJobInput{
		AirtableRecordID: req.RecordID,
		ClientName:       req.Name,
		ClientEmail:      req.Email,
		ClientPhone:      req.Phone,
		Address:          req.Address,
		Style:            styleKey,
		Occupied:         req.Occupied,
		Comments:         req.Comments,
		Photos:           photos,
	})
	if err != nil {
		var ve *storage.ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		h.Log.Error().Err(err).Msg("job creation failed")
		http.Error(w, "could not create job", http.StatusInternalServerError)
		return
	}

	go h.runPipeline(order.JobID, photos)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(h.jobResponse(order, false))
}

// runPipeline processes a job detached from the webhook request, with its own
// deadline.
func (h Handler) runPipeline(jobID string, photos []storage.PhotoRef) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := h.Pipeline.Process(ctx, jobID, photos); err != nil {
		h.Log.Error().Err(err).Str("job_id", jobID).Msg("background job failed")
	}
}

// List handles GET /api/stager/jobs. An optional limit query caps the
// number of summaries returned.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListJobs()
	if err != nil {
		h.Log.Error().Err(err).Msg("listing jobs failed")
		http.Error(w, "could not list jobs", http.StatusInternalServerError)
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 0 && limit < len(orders) {
			orders = orders[:limit]
		}
	}
	resp := make([]JobResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, h.jobResponse(order, false))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Get handles GET /api/stager/jobs/{jobID}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.jobResponse(order, true))
}

// Retry handles POST /api/stager/jobs/{jobID}/retry. It resumes a failed or
// stalled job; an optional stage query (plan, stage, deliver) re-runs just
// that one stage, otherwise all remaining work runs.
func (h Handler) Retry(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	if h.Store.IsComplete(order.JobID) {
		http.Error(w, "job already delivered", http.StatusConflict)
		return
	}
	stage := Stage(r.URL.Query().Get("stage"))
	switch stage {
	case "", StagePlan, StageRender, StageDeliver:
	default:
		http.Error(w, "unknown stage", http.StatusBadRequest)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := h.Pipeline.RunFrom(ctx, order.JobID, stage); err != nil {
			h.Log.Error().Err(err).Str("job_id", order.JobID).Msg("job retry failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"job_id": order.JobID, "status": "retrying"})
}

// RestageImage handles POST /api/stager/jobs/{jobID}/images/{imageID}/restage.
func (h Handler) RestageImage(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	imageID := chi.URLParam(r, "imageID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()
	if err := h.Runner.RestageImage(ctx, order.JobID, imageID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "image not found", http.StatusNotFound)
			return
		}
		h.Log.Error().Err(err).Str("job_id", order.JobID).Str("image", imageID).Msg("restage failed")
		http.Error(w, "restage failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"job_id": order.JobID, "image_id": imageID, "status": "staged"})
}

// Delete handles DELETE /api/stager/jobs/{jobID}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := h.Store.DeleteJob(jobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		h.Log.Error().Err(err).Str("job_id", jobID).Msg("delete failed")
		http.Error(w, "could not delete job", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health with job totals per status.
func (h Handler) Health(w http.ResponseWriter, _ *http.Request) {
	type healthResponse struct {
		Status     string                    `json:"status"`
		Jobs       int                       `json:"jobs"`
		ByStatus   map[storage.JobStatus]int `json:"by_status,omitempty"`
		LastUpdate *time.Time                `json:"last_update,omitempty"`
	}

	resp := healthResponse{Status: "ok"}
	if orders, err := h.Store.ListJobs(); err == nil {
		resp.Jobs = len(orders)
		if len(orders) > 0 {
			resp.ByStatus = make(map[storage.JobStatus]int)
			for _, order := range orders {
				resp.ByStatus[order.Status]++
			}
			resp.LastUpdate = &orders[0].UpdatedAt
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*storage.Order, bool) {
	jobID := chi.URLParam(r, "jobID")
	order, err := h.Store.LoadOrder(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
		} else {
			h.Log.Error().Err(err).Str("job_id", jobID).Msg("loading job failed")
			http.Error(w, "could not load job", http.StatusInternalServerError)
		}
		return nil, false
	}
	return order, true
}

func (h Handler) jobResponse(order *storage.Order, includeImages bool) JobResponse {
	resp := JobResponse{
		JobID:        order.JobID,
		Address:      order.Address,
		Style:        order.Style.DisplayName(),
		Status:       order.Status,
		ErrorMessage: order.ErrorMessage,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if includeImages {
		if plan, err := h.Store.LoadPlan(order.JobID); err == nil {
			for _, img := range plan.Images {
				resp.Images = append(resp.Images, imageResponse{
					ID:           img.ID,
					RoomType:     img.RoomType,
					Status:       img.Status,
					ErrorMessage: img.ErrorMessage,
				})
			}
		}
	}
	return resp
}
