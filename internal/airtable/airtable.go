// Package airtable pushes job status updates back to the Airtable record
// that originated a staging request.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// StatusSink receives lifecycle notifications for a job's source record.
// Implementations must tolerate an empty record id.
type StatusSink interface {
	MarkInProgress(ctx context.Context, recordID string) error
	// MarkDone accepts an optional note for deliveries with partial failures.
	MarkDone(ctx context.Context, recordID, note string) error
	MarkError(ctx context.Context, recordID, message string) error
}

// Disabled is a StatusSink that does nothing, for deployments without an
// Airtable integration.
type Disabled struct{}

func (Disabled) MarkInProgress(context.Context, string) error    { return nil }
func (Disabled) MarkDone(context.Context, string, string) error  { return nil }
func (Disabled) MarkError(context.Context, string, string) error { return nil }

// Client updates records through the Airtable REST API.
type Client struct {
	apiKey     string
	baseID     string
	tableName  string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds an Airtable client for one base and table.
func NewClient(apiKey, baseID, tableName string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseID:     baseID,
		tableName:  tableName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "airtable").Logger(),
	}
}

// Status values written to the record's Status field.
const (
	statusInProgress = "IN_PROGRESS"
	statusStaged     = "STAGED"
	statusFailed     = "FAILED"
)

func (c *Client) MarkInProgress(ctx context.Context, recordID string) error {
	return c.updateStatus(ctx, recordID, statusInProgress, "")
}

func (c *Client) MarkDone(ctx context.Context, recordID, note string) error {
	return c.updateStatus(ctx, recordID, statusStaged, note)
}

func (c *Client) MarkError(ctx context.Context, recordID, message string) error {
	return c.updateStatus(ctx, recordID, statusFailed, message)
}

func (c *Client) updateStatus(ctx context.Context, recordID, status, note string) error {
	if recordID == "" {
		return nil
	}

	fields := map[string]any{"Status": status}
	if note != "" {
		fields["Notes"] = note
	}
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return fmt.Errorf("airtable: encode update: %w", err)
	}

	url := fmt.Sprintf("https://api.airtable.com/v0/%s/%s/%s", c.baseID, c.tableName, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: update record %s: %w", recordID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("airtable: update record %s: status %d: %s", recordID, resp.StatusCode, msg)
	}

	c.log.Debug().Str("record_id", recordID).Str("status", status).Msg("record updated")
	return nil
}
