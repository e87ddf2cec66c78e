// Package server assembles the HTTP surface: routing, middleware, and the
// webhook signature check.
package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"stagevision/internal/stager"
)

// New constructs the HTTP server with routes and middleware. webhookSecret
// may be empty, in which case signature verification is skipped.
func New(port string, handler stager.Handler, webhookSecret string, log zerolog.Logger) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	router.Get("/health", handler.Health)

	router.Route("/api/stager", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(verifySignature(webhookSecret))
			r.Post("/airtable/webhook", handler.Webhook)
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", handler.Get)
				r.Post("/retry", handler.Retry)
				r.Post("/images/{imageID}/restage", handler.RestageImage)
				r.Delete("/", handler.Delete)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("server ready")
	return srv
}

// verifySignature checks the X-Webhook-Signature header, an HMAC-SHA256 hex
// digest of the raw body. With no secret configured, requests pass through.
func verifySignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
			if err != nil {
				http.Error(w, "could not read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))
			if !hmac.Equal([]byte(expected), []byte(r.Header.Get("X-Webhook-Signature"))) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each request with its status and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
