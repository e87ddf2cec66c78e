// Package mailer sends the staged-photo deliverable to the client. Small
// archives are attached; oversize ones are replaced with a download link.
package mailer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"

	"stagevision/internal/storage"
)

// Delivery is everything the delivery email needs.
type Delivery struct {
	Order       *storage.Order
	ArchivePath string
	PhotoCount  int
	// DownloadURL replaces the attachment when set.
	DownloadURL string
}

// Mailer sends a delivery email.
type Mailer interface {
	SendDelivery(ctx context.Context, d Delivery) error
}

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends deliveries over SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
	log zerolog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.With().Str("component", "mailer").Logger()}
}

func (m *SMTPMailer) SendDelivery(ctx context.Context, d Delivery) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mailer: from address: %w", err)
	}
	if err := msg.To(d.Order.Client.Email); err != nil {
		return fmt.Errorf("mailer: recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your virtually staged photos for %s are ready", d.Order.Address))
	msg.SetBodyString(mail.TypeTextPlain, textBody(d))
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(d))

	if d.DownloadURL == "" && d.ArchivePath != "" {
		msg.AttachFile(d.ArchivePath, mail.WithFileName(filepath.Base(d.ArchivePath)))
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("mailer: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", d.Order.Client.Email, err)
	}

	m.log.Info().
		Str("job_id", d.Order.JobID).
		Str("to", d.Order.Client.Email).
		Int("photos", d.PhotoCount).
		Msg("delivery email sent")
	return nil
}

func greetingName(d Delivery) string {
	if name := strings.TrimSpace(d.Order.Client.Name); name != "" {
		return strings.Fields(name)[0]
	}
	return "there"
}

func textBody(d Delivery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(d))
	fmt.Fprintf(&b, "Your %d virtually staged photo(s) for %s are ready, staged in the %s style.\n\n",
		d.PhotoCount, d.Order.Address, d.Order.Style.DisplayName())
	if d.DownloadURL != "" {
		fmt.Fprintf(&b, "Download your photos here:\n%s\n\n", d.DownloadURL)
	} else {
		b.WriteString("Your photos are attached to this email as a zip archive.\n\n")
	}
	b.WriteString("Each photo carries a \"Virtually Staged\" label as required for MLS listings.\n\n")
	b.WriteString("Best,\nThe Staging Team\n")
	return b.String()
}

func htmlBody(d Delivery) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: sans-serif; color: #333;\">")
	fmt.Fprintf(&b, "<p>Hi %s,</p>", greetingName(d))
	fmt.Fprintf(&b, "<p>Your <strong>%d virtually staged photo(s)</strong> for <strong>%s</strong> are ready, staged in the <em>%s</em> style.</p>",
		d.PhotoCount, d.Order.Address, d.Order.Style.DisplayName())
	if d.DownloadURL != "" {
		fmt.Fprintf(&b, "<p><a href=\"%s\">Download your photos</a></p>", d.DownloadURL)
	} else {
		b.WriteString("<p>Your photos are attached to this email as a zip archive.</p>")
	}
	b.WriteString("<p>Each photo carries a &quot;Virtually Staged&quot; label as required for MLS listings.</p>")
	b.WriteString("<p>Best,<br>The Staging Team</p>")
	b.WriteString("</body></html>")
	return b.String()
}
