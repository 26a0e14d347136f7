package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/antoniostano/taskrelay/internal/tasks"
	"github.com/antoniostano/taskrelay/internal/upstream"
)

const (
	msgTaskAdded      = "Task added successfully"
	msgTextRequired   = "Task text is required"
	msgUpstreamFailed = "Failed to fetch from Python server"
	msgProxyRunning   = "Task proxy server is running"
)

type appendTaskRequest struct {
	Text string `json:"text"`
}

type listTasksResponse struct {
	Tasks []tasks.Task `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type proxyStatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Port    int    `json:"port"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Hello World")
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Record("task_list_failed", map[string]any{
			"error":      err.Error(),
			"request_id": requestIDFrom(r.Context()),
		})
		respondError(w, http.StatusInternalServerError, "Failed to read tasks")
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}
	s.metrics.StoredTasks.Set(float64(len(list)))
	respondJSON(w, http.StatusOK, listTasksResponse{Tasks: list})
}

func (s *Server) handleAppendTask(w http.ResponseWriter, r *http.Request, req appendTaskRequest) {
	if err := s.store.Append(r.Context(), req.Text); err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			s.metrics.TaskAppends.WithLabelValues("rejected").Inc()
			respondError(w, http.StatusBadRequest, msgTextRequired)
			return
		}
		s.metrics.TaskAppends.WithLabelValues("error").Inc()
		s.logger.Record("task_append_failed", map[string]any{
			"error":      err.Error(),
			"request_id": requestIDFrom(r.Context()),
		})
		respondError(w, http.StatusInternalServerError, "Failed to add task")
		return
	}

	s.metrics.TaskAppends.WithLabelValues("added").Inc()
	if counter, ok := s.store.(interface{ Len() int }); ok {
		s.metrics.StoredTasks.Set(float64(counter.Len()))
	}
	s.feed.Publish(req.Text)
	s.logger.Record("task_added", map[string]any{
		"length":     len(req.Text),
		"request_id": requestIDFrom(r.Context()),
	})
	respondJSON(w, http.StatusOK, messageResponse{Message: msgTaskAdded})
}

func (s *Server) handleProxyRoot(w http.ResponseWriter, _ *http.Request) {
	port, _ := s.cfg.Port()
	respondJSON(w, http.StatusOK, proxyStatusResponse{
		Message: msgProxyRunning,
		Status:  "healthy",
		Port:    port,
	})
}

// handleProxyListTasks relays the upstream collection as-is. There is no
// local fallback: any upstream failure is a 500 with a fixed message.
func (s *Server) handleProxyListTasks(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	collection, err := s.fetcher.FetchTasks(r.Context())
	if err != nil {
		fields := map[string]any{
			"error":      err.Error(),
			"request_id": requestIDFrom(r.Context()),
		}
		outcome := "error"
		var uerr *upstream.Error
		if errors.As(err, &uerr) {
			outcome = string(uerr.Kind)
			fields["kind"] = uerr.Kind
			fields["upstream"] = uerr.URL
			if uerr.StatusCode != 0 {
				fields["upstream_status"] = uerr.StatusCode
			}
		}
		s.metrics.ObserveUpstreamFetch(outcome, time.Since(started))
		s.logger.Record("upstream_fetch_failed", fields)
		respondError(w, http.StatusInternalServerError, msgUpstreamFailed)
		return
	}
	s.metrics.ObserveUpstreamFetch("ok", time.Since(started))
	if collection.Tasks == nil {
		collection.Tasks = []string{}
	}
	respondJSON(w, http.StatusOK, collection)
}
