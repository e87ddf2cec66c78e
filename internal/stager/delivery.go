package stager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"stagevision/internal/mailer"
	"stagevision/internal/media"
	"stagevision/internal/storage"
)

// ErrNoOutputs is returned when packaging finds no staged photos to deliver.
var ErrNoOutputs = errors.New("stager: no staged photos to package")

const (
	archiveName = "staged_photos.zip"
	// Archives above this size go out as a download link instead of an
	// attachment; most mail providers reject larger messages.
	maxAttachmentBytes = 25 * 1024 * 1024
)

// Delivery packages staged photos and sends them to the client.
type Delivery struct {
	store     *storage.Store
	mailer    mailer.Mailer
	publisher media.Publisher
	log       zerolog.Logger
}

func NewDelivery(store *storage.Store, m mailer.Mailer, pub media.Publisher, log zerolog.Logger) *Delivery {
	return &Delivery{
		store:     store,
		mailer:    m,
		publisher: pub,
		log:       log.With().Str("component", "delivery").Logger(),
	}
}

// PackageOutputs zips the labeled staged photos into the job's final folder
// and returns the archive path plus the number of photos included.
func (d *Delivery) PackageOutputs(jobID string) (string, int, error) {
	var outputs []string
	plan, err := d.store.LoadPlan(jobID)
	switch {
	case err == nil:
		for _, img := range plan.Images {
			if img.Status == storage.ImageStaged && img.OutputPath != "" {
				outputs = append(outputs, img.OutputPath)
			}
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return "", 0, err
	}
	if len(outputs) == 0 {
		// Plan may be missing or stale after a partial crash; the files on
		// disk are the ground truth for what was staged.
		pattern := d.store.AbsolutePath(jobID, "staged", "*_staged_final.jpg")
		if matches, err := filepath.Glob(pattern); err == nil {
			for _, m := range matches {
				outputs = append(outputs, filepath.Join("staged", filepath.Base(m)))
			}
		}
	}
	if len(outputs) == 0 {
		return "", 0, ErrNoOutputs
	}
	sort.Strings(outputs)

	files := make([]string, len(outputs))
	for i, out := range outputs {
		files[i] = d.store.AbsolutePath(jobID, out)
	}
	archivePath := d.store.AbsolutePath(jobID, "final", archiveName)
	if err := writeArchive(archivePath, files); err != nil {
		return "", 0, err
	}
	return archivePath, len(outputs), nil
}

// PackageAndSend builds the deliverable archive and emails it to the client,
// marking the job delivered. A job already carrying the delivery marker is
// left untouched so webhook replays cannot double-send.
func (d *Delivery) PackageAndSend(ctx context.Context, jobID string) error {
	if d.store.IsComplete(jobID) {
		d.log.Info().Str("job_id", jobID).Msg("job already delivered, skipping")
		return nil
	}

	order, err := d.store.LoadOrder(jobID)
	if err != nil {
		return err
	}
	if err := d.store.SetJobStatus(jobID, storage.JobPackaging, ""); err != nil {
		return err
	}

	archivePath, count, err := d.PackageOutputs(jobID)
	if err != nil {
		return err
	}

	delivery := mailer.Delivery{
		Order:       order,
		ArchivePath: archivePath,
		PhotoCount:  count,
	}
	if info, err := os.Stat(archivePath); err == nil && info.Size() > maxAttachmentBytes {
		result, pubErr := d.publisher.Publish(ctx, jobID, archivePath)
		if pubErr != nil {
			if !errors.Is(pubErr, media.ErrPublishingDisabled) {
				return fmt.Errorf("stager: publish archive: %w", pubErr)
			}
			d.log.Warn().Str("job_id", jobID).Int64("bytes", info.Size()).
				Msg("archive exceeds attachment limit and no publisher configured, attaching anyway")
		} else {
			delivery.DownloadURL = result.URL
		}
	}

	if err := d.mailer.SendDelivery(ctx, delivery); err != nil {
		return err
	}
	if err := d.store.MarkComplete(jobID); err != nil {
		return err
	}
	d.log.Info().Str("job_id", jobID).Int("photos", count).Msg("job delivered")
	return nil
}

// writeArchive zips the outputs, renaming each entry so clients see
// "kitchen_staged.jpg" rather than the pipeline's internal suffix.
func writeArchive(archivePath string, outputs []string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fmt.Errorf("stager: create final dir: %w", err)
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("stager: create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, output := range outputs {
		if err := addArchiveEntry(zw, output); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("stager: finalize archive: %w", err)
	}
	return f.Close()
}

func addArchiveEntry(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stager: open staged photo: %w", err)
	}
	defer src.Close()

	name := strings.Replace(filepath.Base(path), "_staged_final", "_staged", 1)
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("stager: add archive entry: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("stager: write archive entry: %w", err)
	}
	return nil
}
