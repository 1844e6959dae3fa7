package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cancelsaga/internal/config"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/metrics"
	"cancelsaga/internal/service"

	"github.com/rs/zerolog"
)

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

// HTTPServer exposes the cancellation API over HTTP alongside the gRPC service.
type HTTPServer struct {
	cfg             *config.APIConfig
	svc             domain.CancellationService
	guard           *CancelGuard
	checks          map[string]HealthCheck
	requesterHeader string
	server          *http.Server
	auth            *HTTPAuth
	log             zerolog.Logger
}

func NewHTTPServer(
	cfg *config.APIConfig,
	svc domain.CancellationService,
	guard *CancelGuard,
	checks map[string]HealthCheck,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:             cfg,
		svc:             svc,
		guard:           guard,
		checks:          checks,
		requesterHeader: headerName(cfg.RequesterHeader, requesterHeaderDefault),
		auth:            NewHTTPAuth(cfg),
		log:             zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	routes := http.NewServeMux()
	routes.HandleFunc("POST /api/v1/bookings/{id}/cancel", srv.handleCancel)
	routes.HandleFunc("GET /api/v1/bookings/{id}/cancellation", srv.handleGetCancellation)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.Handle("/api/", srv.auth.Wrap(routes))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel")

	bookingID, ok := pathBookingID(w, r)
	if !ok {
		return
	}

	var body cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	requesterID := strings.TrimSpace(r.Header.Get(s.requesterHeader))
	if !s.guard.Allow(r.Context(), requesterID) {
		writeError(w, http.StatusTooManyRequests, "too many cancellation requests")
		return
	}

	result, err := s.svc.CancelBooking(r.Context(), bookingID, requesterID, body.Reason)
	if err != nil && !service.IsBusinessError(err) {
		s.log.Error().Err(err).Int64("booking_id", bookingID).Msg("cancel booking")
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleGetCancellation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_cancellation")

	bookingID, ok := pathBookingID(w, r)
	if !ok {
		return
	}

	result, err := s.svc.GetCancellation(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, service.ErrOutcomeNotFound) {
			writeError(w, http.StatusNotFound, "no cancellation recorded for booking")
			return
		}
		s.log.Error().Err(err).Int64("booking_id", bookingID).Msg("get cancellation")
		writeError(w, http.StatusInternalServerError, "failed to load cancellation")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	statusCode := http.StatusOK
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			statusCode = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	state := "ok"
	if statusCode != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, statusCode, map[string]any{"status": state, "components": components})
}

func pathBookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return 0, false
	}
	return id, true
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg     *config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
}

func NewHTTPAuth(cfg *config.APIConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg, clients: indexClients(cfg.Auth.APIKeys), limiter: newRateLimiter(cfg)}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || !a.cfg.HTTP.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

var errPermissionDenied = errors.New("permission denied")

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(headerName(a.cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault)))
	extra := strings.TrimSpace(r.Header.Get(headerName(a.cfg.Auth.HeaderExtra, apiExtraHeaderDefault)))
	if apiKey == "" || extra == "" {
		return errors.New("missing api key headers")
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errors.New("invalid api key")
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errors.New("invalid extra header")
	}

	if !hasPermission(client, requiredPermissionHTTP(r)) {
		return errPermissionDenied
	}
	return nil
}

func requiredPermissionHTTP(r *http.Request) string {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/cancel"):
		return permCancelBookings
	case strings.HasSuffix(path, "/cancellation"):
		return permReadCancellations
	default:
		return ""
	}
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(headerName(a.cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault))); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
