// Package server is the HTTP wrapper around the earthquake service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/service"
	"sasquatch-backpack/src/usgs"
)

const (
	EarthquakePath = "/sources/usgs/earthquake/"
	requestIDKey   = "X-Request-ID"

	// maxBodyBytes caps request bodies; a valid query is well under 1 KiB.
	maxBodyBytes = 64 << 10
)

// Response is the body returned for a successful search.
type Response struct {
	Earthquakes []usgs.Earthquake  `json:"earthquakes"`
	Outcome     *contracts.Outcome `json:"outcome,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// Server serves the earthquake endpoint, health checks and metrics.
type Server struct {
	addr       string
	logger     zerolog.Logger
	runner     service.Runner
	gatherer   prometheus.Gatherer
	httpServer *http.Server
}

// New creates a server. gatherer backs /metrics.
func New(addr string, logger zerolog.Logger, runner service.Runner, gatherer prometheus.Gatherer) (*Server, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		addr:     addr,
		logger:   logger.With().Str("component", "http").Logger(),
		runner:   runner,
		gatherer: gatherer,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+EarthquakePath, s.handleEarthquake)
	mux.HandleFunc("GET /healthz", s.healthzHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s.withRequestID(mux)
}

// ListenAndServe blocks until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       5 * time.Second,
		// A publish makes several outbound calls, each bounded at 10s.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDKey, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleEarthquake(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get(requestIDKey)
	log := s.logger.With().Str("request_id", requestID).Logger()

	req := service.DefaultRequest()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Warn().Err(err).Int("status", status).Msg("malformed request body")
		s.writeError(w, status, requestID, fmt.Sprintf("malformed request body: %v", err))
		return
	}

	start := time.Now()
	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		log.Error().Err(err).Int("status", status).Msg("earthquake request failed")
		s.writeError(w, status, requestID, err.Error())
		return
	}

	status := statusFor(result)
	log.Info().
		Int("status", status).
		Int("earthquakes", len(result.Earthquakes)).
		Bool("published", result.Published()).
		Dur("elapsed", time.Since(start)).
		Msg("earthquake request served")

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	writeJSON(w, status, Response{Earthquakes: result.Earthquakes, Outcome: result.Outcome})
}

// statusFor maps a result onto the wrapper's status codes:
// 204 no events, 200 search only or warning, 201 delivered, 500 failed step.
func statusFor(result service.Result) int {
	switch {
	case len(result.Earthquakes) == 0:
		return http.StatusNoContent
	case result.Outcome == nil:
		return http.StatusOK
	case result.Outcome.Succeeded:
		return http.StatusCreated
	case result.Outcome.HasError():
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (s *Server) writeError(w http.ResponseWriter, status int, requestID, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
