package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/taskrelay/internal/config"
	"github.com/antoniostano/taskrelay/internal/observability"
	"github.com/antoniostano/taskrelay/internal/tasks"
	"github.com/antoniostano/taskrelay/internal/upstream"
)

// TaskFetcher reads the task collection from the peer service in proxy mode.
type TaskFetcher interface {
	FetchTasks(ctx context.Context) (upstream.TaskCollection, error)
}

type Server struct {
	cfg      config.Config
	store    tasks.Store
	fetcher  TaskFetcher
	feed     *tasks.Feed
	metrics  *observability.Metrics
	logger   observability.Logger
	upgrader websocket.Upgrader
}

// New wires a server for cfg.Mode. Local mode uses store (in-memory when nil);
// proxy mode uses fetcher (an upstream client for cfg.UpstreamURL when nil).
func New(cfg config.Config, store tasks.Store, fetcher TaskFetcher, feed *tasks.Feed, metrics *observability.Metrics, logger observability.Logger) *Server {
	if cfg.Mode == "" {
		cfg.Mode = config.ModeLocal
	}
	if cfg.Mode == config.ModeLocal && store == nil {
		store = tasks.NewInMemoryStore()
	}
	if cfg.Mode == config.ModeProxy && fetcher == nil {
		fetcher = upstream.NewClient(cfg.UpstreamURL)
	}
	if feed == nil {
		feed = tasks.NewFeed(0)
	}
	if metrics == nil {
		metrics = observability.NewMetrics(cfg.MetricsNamespace)
	}
	if logger == nil {
		logger = observability.NopLogger
	}
	feed.SetDropHook(metrics.FeedDroppedEvent.Inc)

	return &Server{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		feed:    feed,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may open the feed unless explicitly relaxed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.instrument, middleware.Recoverer)
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	switch s.cfg.Mode {
	case config.ModeProxy:
		r.Get("/", s.handleProxyRoot)
		r.Get("/tasks", s.handleProxyListTasks)
	default:
		r.Get("/", s.handleRoot)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", withJSONBody(s.handleAppendTask))
		r.Get("/tasks/ws", s.handleTaskFeed)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"mode":            s.cfg.Mode,
		"task_store_mode": s.taskStoreMode(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) taskStoreMode() string {
	if s.cfg.Mode == config.ModeProxy {
		return "upstream"
	}
	if s.store == nil {
		return "disabled"
	}
	return s.store.Mode()
}

type errorResponse struct {
	Error string `json:"error"`
}

// MalformedRequestError is a request body that could not be decoded as JSON
// into the handler's expected shape.
type MalformedRequestError struct {
	Err error
}

func (e *MalformedRequestError) Error() string { return "malformed JSON body: " + e.Err.Error() }

func (e *MalformedRequestError) Unwrap() error { return e.Err }

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return &MalformedRequestError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &MalformedRequestError{Err: errors.New("unexpected data after JSON value")}
	}
	return nil
}

// withJSONBody decodes the request body into T before next runs. An empty body
// yields the zero T; a malformed one is answered with 400 and next never runs.
func withJSONBody[T any](next func(http.ResponseWriter, *http.Request, T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "Malformed JSON body")
			return
		}
		next(w, r, body)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
