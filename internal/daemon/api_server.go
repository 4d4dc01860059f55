package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"audiodesc/internal/api"
	"audiodesc/internal/config"
	"audiodesc/internal/logging"
	"audiodesc/internal/services"
	"audiodesc/internal/workflow"
)

const maxRequestBytes = 1 << 20

// Workflows is the operation surface the API server dispatches to.
type Workflows interface {
	AnalyzeYouTube(ctx context.Context, url string) (workflow.AnalyzeResult, error)
	Status(ctx context.Context, taskID string) (workflow.StatusResult, error)
	Query(ctx context.Context, expression string) ([]json.RawMessage, error)
	Generate(ctx context.Context, summary string) (string, error)
	Health() []workflow.ComponentHealth
}

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	svc     Workflows
	limiter *rate.Limiter
	// daemonStatus, when set, is reported as the "daemon" health component.
	daemonStatus func() Status

	address atomic.Value
	server  *http.Server
}

func newAPIServer(cfg *config.Config, svc Workflows, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("api server requires config and workflows")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("api server requires server.bind")
	}
	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Server.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		svc:    svc,
	}
	if rpm := cfg.Server.AnalyzeRequestsPerMinute; rpm > 0 {
		srv.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	}
	srv.server = &http.Server{
		Handler:           srv.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// analyze blocks on the import and status may block on generation.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(api.PathAnalyze, authMiddleware(s.token, s.handleAnalyze))
	mux.HandleFunc(api.PathStatus, authMiddleware(s.token, s.handleStatus))
	mux.HandleFunc(api.PathQuery, authMiddleware(s.token, s.handleQuery))
	mux.HandleFunc(api.PathGenerate, authMiddleware(s.token, s.handleGenerate))
	mux.HandleFunc(api.PathHealth, s.handleHealth)
	return requestIDMiddleware(mux)
}

// serve listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (s *apiServer) serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.address.Store(listener.Addr().String())
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
		_ = s.server.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

func (s *apiServer) addr() string {
	addr, _ := s.address.Load().(string)
	return addr
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "analyze rate limit exceeded")
		return
	}
	var req api.AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithEndpoint(r.Context(), "analyze_youtube")
	result, err := s.svc.AnalyzeYouTube(ctx, req.URL)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AnalyzeResponse{TaskID: result.TaskID, Status: string(result.Status)})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}
	var req api.StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithEndpoint(r.Context(), "status")
	result, err := s.svc.Status(ctx, req.TaskID)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		TaskID: result.TaskID,
		Status: string(result.Status),
		File:   result.File,
	})
}

func (s *apiServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}
	var req api.QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithEndpoint(r.Context(), "query")
	files, err := s.svc.Query(ctx, req.Query)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	if files == nil {
		files = []json.RawMessage{}
	}
	s.writeJSON(w, http.StatusOK, api.QueryResponse(files))
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}
	var req api.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithEndpoint(r.Context(), "generate")
	text, err := s.svc.Generate(ctx, req.AudioSummary)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.GenerateResponse{Text: text})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	components := s.svc.Health()
	resp := api.HealthResponse{Status: "ok", Components: make([]api.ComponentHealth, 0, len(components))}
	for _, c := range components {
		if !c.Ready {
			resp.Status = "degraded"
		}
		resp.Components = append(resp.Components, api.ComponentHealth{Name: c.Name, Ready: c.Ready, Detail: c.Detail})
	}
	if s.daemonStatus != nil {
		status := s.daemonStatus()
		resp.Components = append(resp.Components, api.ComponentHealth{
			Name:   "daemon",
			Ready:  status.Running,
			Detail: "listening on " + status.Address,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decode reads a single JSON object, rejecting unknown fields and bodies over
// maxRequestBytes.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			s.writeError(w, http.StatusBadRequest, "request body is required")
		default:
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return false
	}
	if dec.More() {
		s.writeError(w, http.StatusBadRequest, "invalid request body: trailing data")
		return false
	}
	return true
}

func (s *apiServer) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(ctx, s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			logging.Int("status", status),
			logging.Error(err),
		)
	} else {
		logger.Info("request rejected", logging.Int("status", status), logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// requestIDMiddleware honours an inbound X-Request-ID or mints a UUID, stamps
// it into the request context, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(api.RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(api.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}
