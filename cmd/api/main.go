package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/genai"

	"stagevision/internal/airtable"
	"stagevision/internal/config"
	"stagevision/internal/infra"
	"stagevision/internal/mailer"
	"stagevision/internal/media"
	"stagevision/internal/render"
	"stagevision/internal/server"
	"stagevision/internal/stager"
	"stagevision/internal/storage"
	"stagevision/internal/vision"
)

func main() {
	cfg := config.FromEnv()
	log := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	store, err := storage.NewStore(cfg.BaseJobsDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init job store")
	}

	if cfg.Google.APIKey == "" {
		log.Fatal().Msg("GOOGLE_API_KEY is required")
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Google.APIKey})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init gemini client")
	}

	analyzer := vision.NewGeminiAnalyzer(genaiClient, cfg.Google.VisionModel,
		cfg.Google.RequestTimeout, cfg.Google.AnalyzeMaxRetries, log)
	renderer := render.NewGeminiRenderer(genaiClient, cfg.Google.ImageModel,
		cfg.Google.RequestTimeout, cfg.Google.StageMaxRetries, log)

	var sink airtable.StatusSink = airtable.Disabled{}
	if cfg.Airtable.APIKey != "" && cfg.Airtable.BaseID != "" {
		sink = airtable.NewClient(cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.TableName, log)
	} else {
		log.Info().Msg("airtable status updates disabled (credentials missing)")
	}

	publisher, err := media.NewPublisher(ctx, media.Config{
		Bucket:         cfg.Media.Bucket,
		Region:         cfg.Media.Region,
		Endpoint:       cfg.Media.Endpoint,
		PublicURL:      cfg.Media.PublicURL,
		KeyPrefix:      cfg.Media.KeyPrefix,
		ForcePathStyle: cfg.Media.ForcePathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media publisher")
	}

	smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	planner := stager.NewPlanner(store, analyzer, log)
	runner := stager.NewRunner(store, renderer, cfg.LabelFontPath, log)
	delivery := stager.NewDelivery(store, smtpMailer, publisher, log)
	pipeline := stager.NewPipeline(store, planner, runner, delivery, sink, log)

	handler := stager.Handler{
		Store:    store,
		Pipeline: pipeline,
		Runner:   runner,
		Log:      log,
	}

	srv := server.New(cfg.Port, handler, cfg.WebhookSecret, log)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Info().Msg("shutting down server")
		if err := srv.Close(); err != nil {
			log.Error().Err(err).Msg("server close error")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
