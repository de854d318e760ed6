package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nitro-neal/toonout-docker/config"
	"github.com/nitro-neal/toonout-docker/inference"
	"github.com/nitro-neal/toonout-docker/middleware"
	"github.com/nitro-neal/toonout-docker/models"
	"github.com/nitro-neal/toonout-docker/pipeline"
)

// backend is the slice of inference.Engine the HTTP layer needs.
type backend interface {
	Device() string
	PoolMetrics() inference.PoolMetrics
}

type server struct {
	cfg    *config.Config
	engine backend
	pipe   *pipeline.Pipeline
	logger *zap.Logger
}

func newServer(cfg *config.Config, engine backend, pipe *pipeline.Pipeline, logger *zap.Logger) *server {
	return &server{
		cfg:    cfg,
		engine: engine,
		pipe:   pipe,
		logger: logger,
	}
}

func (s *server) router() *mux.Router {
	auth := middleware.APIKeyAuth(s.cfg.Auth.APIKey)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(s.logger))
	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/ping", auth(s.handlePing)).Methods("GET")
	r.HandleFunc("/cutout_zip", auth(s.handleCutoutZip)).Methods("POST")
	r.HandleFunc("/metrics", auth(s.handleMetrics)).Methods("GET")
	return r
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "ToonOut API",
		"version": Version,
		"endpoints": map[string]string{
			"/ping":       "Health check",
			"/cutout_zip": "POST a ZIP of images to remove backgrounds",
		},
	})
}

func (s *server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.PingResponse{
		Status: "ok",
		Device: s.engine.Device(),
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	metrics := s.engine.PoolMetrics()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool_size":        metrics.Size,
		"sessions_in_use":  metrics.InUse,
		"total_acquired":   metrics.TotalAcquired,
		"total_released":   metrics.TotalReleased,
		"acquire_failures": metrics.AcquireFailures,
	})
}

func (s *server) handleCutoutZip(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseThreshold(r.URL.Query().Get("threshold"))
	if err != nil {
		sendErrorResponse(w, "invalid_threshold", err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		sendErrorResponse(w, "invalid_request", "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendErrorResponse(w, "invalid_request", "Missing multipart field 'file'", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		sendErrorResponse(w, "invalid_request", "Upload must be a .zip file", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		sendErrorResponse(w, "invalid_request", "Failed to read upload", http.StatusBadRequest)
		return
	}

	// A started batch runs to completion for every entry; a client that
	// hangs up mid-batch must not poison the remaining entries.
	out, err := s.pipe.Process(context.WithoutCancel(r.Context()), raw, threshold)
	if err != nil {
		if pipeline.IsValidation(err) {
			sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("batch processing failed", zap.Error(err))
		sendErrorResponse(w, "processing_error", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="cutouts.zip"`)
	w.Write(out)
}

func parseThreshold(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("threshold must be a number, got %q", raw)
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, models.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
