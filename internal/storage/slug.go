package storage

import (
	"strings"

	"github.com/google/uuid"
)

// Slugify lowercases text, replaces runs of non-alphanumerics with single
// hyphens, and truncates to maxLen.
func Slugify(text string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}

// NewJobID derives a job identifier from the property address plus a short
// random suffix, so ids stay human-readable on disk yet collision-safe.
func NewJobID(address string) string {
	slug := Slugify(address, 40)
	if slug == "" {
		slug = "job"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return slug + "-" + suffix
}
