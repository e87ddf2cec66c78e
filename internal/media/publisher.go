// Package media publishes deliverable archives that are too large to attach
// to email, returning a download URL for the delivery message.
package media

import (
	"context"
	"errors"
)

// ErrPublishingDisabled indicates that no publishing backend is configured.
var ErrPublishingDisabled = errors.New("media publishing disabled")

// PublishResult captures the canonical object key and its accessible URL.
type PublishResult struct {
	Key string
	URL string
}

// Publisher hides the backing implementation for hosting deliverables.
type Publisher interface {
	Publish(ctx context.Context, jobID, filePath string) (PublishResult, error)
}

type disabledPublisher struct{}

func (disabledPublisher) Publish(context.Context, string, string) (PublishResult, error) {
	return PublishResult{}, ErrPublishingDisabled
}

// Disabled returns a publisher that always signals disabled publishing.
func Disabled() Publisher {
	return disabledPublisher{}
}
