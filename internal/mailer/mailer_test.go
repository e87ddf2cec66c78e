package mailer

import (
	"strings"
	"testing"

	"stagevision/internal/storage"
	"stagevision/internal/styles"
)

func testDelivery() Delivery {
	return Delivery{
		Order: &storage.Order{
			JobID:   "42-elm-street-abc123",
			Address: "42 Elm Street",
			Style:   styles.Coastal,
			Client:  storage.ClientInfo{Name: "Jamie Doe", Email: "jamie@example.com"},
		},
		ArchivePath: "/jobs/42-elm-street-abc123/final/staged_photos.zip",
		PhotoCount:  4,
	}
}

func TestTextBodyAttached(t *testing.T) {
	body := textBody(testDelivery())
	for _, want := range []string{"Hi Jamie", "4 virtually staged", "42 Elm Street", "Coastal", "attached", "Virtually Staged"} {
		if !strings.Contains(body, want) {
			t.Errorf("text body missing %q:\n%s", want, body)
		}
	}
}

func TestTextBodyLinked(t *testing.T) {
	d := testDelivery()
	d.DownloadURL = "https://cdn.example.com/archive.zip"
	body := textBody(d)
	if !strings.Contains(body, d.DownloadURL) {
		t.Errorf("linked body missing URL:\n%s", body)
	}
	if strings.Contains(body, "attached") {
		t.Errorf("linked body should not mention an attachment:\n%s", body)
	}
}

func TestHTMLBody(t *testing.T) {
	html := htmlBody(testDelivery())
	for _, want := range []string{"<html>", "Jamie", "42 Elm Street", "Coastal"} {
		if !strings.Contains(html, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestGreetingNameFallback(t *testing.T) {
	d := testDelivery()
	d.Order.Client.Name = "  "
	if got := greetingName(d); got != "there" {
		t.Errorf("greetingName = %q, want %q", got, "there")
	}
}
