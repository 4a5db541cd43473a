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
	"time"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/dispatch"
	"callboard/internal/logging"
	"callboard/internal/refs"
	"callboard/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type clipResponse struct {
	ID        string `json:"id"`
	EpisodeID string `json:"episodeId"`
	Scene     string `json:"scene,omitempty"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status"`
	TaskID    string `json:"taskId,omitempty"`
	ResultURL string `json:"resultUrl,omitempty"`
	Model     string `json:"model,omitempty"`
}

type dispatchRequest struct {
	Model           string `json:"model"`
	Mode            string `json:"mode"`
	StyleImageIndex *int   `json:"styleImageIndex"`
}

type dispatchResponse struct {
	ClipID    string `json:"clipId"`
	Status    string `json:"status"`
	TaskID    string `json:"taskId,omitempty"`
	ResultURL string `json:"resultUrl,omitempty"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.WithComponent(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/clips", srv.handleClips)
	mux.HandleFunc("/api/clips/", srv.handleClipAction)
	mux.HandleFunc("/api/library/", srv.handleLibraryAction)
	mux.HandleFunc("/api/poll", srv.handlePoll)
	mux.HandleFunc("/api/recover", srv.handleRecover)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address, available after start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"running":      status.Running,
		"statusCounts": status.StatusCounts,
		"dbPath":       status.DBPath,
		"lockFilePath": status.LockFilePath,
	})
}

func (s *apiServer) handleClips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var filter *catalog.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := catalog.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		filter = &status
	}

	clips, err := s.daemon.Clips(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]clipResponse, 0, len(clips))
	for _, clip := range clips {
		out = append(out, clipResponse{
			ID:        clip.ID,
			EpisodeID: clip.EpisodeID,
			Scene:     clip.Scene,
			Title:     clip.Title,
			Status:    clip.Status.String(),
			TaskID:    clip.TaskID,
			ResultURL: clip.ResultURL,
			Model:     clip.Model,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clips": out})
}

// handleClipAction routes /api/clips/{id}/dispatch and /api/clips/{id}/archive.
func (s *apiServer) handleClipAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/clips/")
	clipID, action, ok := strings.Cut(rest, "/")
	if !ok || clipID == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "dispatch":
		s.handleDispatch(w, r, clipID)
	case "archive":
		s.handleArchive(w, r, clipID)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleDispatch(w http.ResponseWriter, r *http.Request, clipID string) {
	// An empty body means default options.
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := dispatch.Options{
		ModelOverride:   req.Model,
		StyleImageIndex: req.StyleImageIndex,
	}
	if strings.EqualFold(req.Mode, "all") {
		opts.Mode = refs.ModeAll
	}

	result, err := s.daemon.Dispatch(r.Context(), clipID, opts)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dispatchResponse{
		ClipID:    result.ClipID,
		Status:    result.Status.String(),
		TaskID:    result.TaskID,
		ResultURL: result.ResultURL,
	})
}

func (s *apiServer) handleArchive(w http.ResponseWriter, r *http.Request, clipID string) {
	status, err := s.daemon.Archive(r.Context(), clipID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"clipId": clipID, "status": status.String()})
}

// handleLibraryAction routes /api/library/{seriesId}/invalidate, dropping the
// dispatcher's cached asset lookup after library edits.
func (s *apiServer) handleLibraryAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/library/")
	seriesID, action, ok := strings.Cut(rest, "/")
	if !ok || seriesID == "" || action != "invalidate" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.InvalidateLibrary(seriesID)
	s.writeJSON(w, http.StatusOK, map[string]string{"seriesId": seriesID})
}

func (s *apiServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.daemon.Poll(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.daemon.Recover(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case services.IsValidation(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSubmission), services.Transient(err):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
	s.writeJSON(w, status, map[string]string{"error": message})
}
