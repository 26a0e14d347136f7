package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/taskrelay/internal/config"
	"github.com/antoniostano/taskrelay/internal/observability"
	"github.com/antoniostano/taskrelay/internal/upstream"
)

func newProxyServer(t *testing.T, upstreamURL string) (*httptest.Server, *recordingLogger) {
	t.Helper()
	cfg := config.Config{
		Mode:             config.ModeProxy,
		BindAddr:         "0.0.0.0:8001",
		UpstreamURL:      upstreamURL,
		MetricsNamespace: "proxy_test",
	}
	logger := &recordingLogger{}
	srv := New(cfg, nil, nil, nil, observability.NewMetrics(cfg.MetricsNamespace), logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, logger
}

func TestProxyRootReportsStatus(t *testing.T) {
	ts, _ := newProxyServer(t, "http://127.0.0.1:1")

	status, _, body := doRequest(t, http.MethodGet, ts.URL+"/", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Task proxy server is running","status":"healthy","port":8001}`, body)
}

func TestProxyRelaysUpstreamTasks(t *testing.T) {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":["a","b"]}`))
	}))
	defer peer.Close()
	ts, logger := newProxyServer(t, peer.URL)

	status, _, body := doRequest(t, http.MethodGet, ts.URL+"/tasks", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"tasks":["a","b"]}`, body)
	assert.Empty(t, logger.find("upstream_fetch_failed"))
}

func TestProxyRelaysEmptyCollectionAsArray(t *testing.T) {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tasks":[]}`))
	}))
	defer peer.Close()
	ts, _ := newProxyServer(t, peer.URL)

	_, _, body := doRequest(t, http.MethodGet, ts.URL+"/tasks", "")
	assert.JSONEq(t, `{"tasks":[]}`, body)
}

func TestProxyUnreachableUpstream(t *testing.T) {
	peer := httptest.NewServer(http.NotFoundHandler())
	peerURL := peer.URL
	peer.Close()
	ts, logger := newProxyServer(t, peerURL)

	status, _, body := doRequest(t, http.MethodGet, ts.URL+"/tasks", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Failed to fetch from Python server"}`, body)

	failures := logger.find("upstream_fetch_failed")
	require.Len(t, failures, 1)
	assert.Equal(t, peerURL+"/tasks", failures[0].fields["upstream"])
	assert.Equal(t, upstream.KindNetwork, failures[0].fields["kind"])
	assert.NotEmpty(t, failures[0].fields["error"])
}

func TestProxyUpstreamErrorStatus(t *testing.T) {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer peer.Close()
	ts, logger := newProxyServer(t, peer.URL)

	status, _, body := doRequest(t, http.MethodGet, ts.URL+"/tasks", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Failed to fetch from Python server"}`, body)
	assert.NotContains(t, body, "unavailable")

	failures := logger.find("upstream_fetch_failed")
	require.Len(t, failures, 1)
	assert.Equal(t, http.StatusServiceUnavailable, failures[0].fields["upstream_status"])
}

func TestProxyHasNoWritePath(t *testing.T) {
	ts, _ := newProxyServer(t, "http://127.0.0.1:1")

	status, _, _ := doRequest(t, http.MethodPost, ts.URL+"/tasks", `{"text":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, _, _ = doRequest(t, http.MethodGet, ts.URL+"/tasks/ws", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProxySlowUpstreamDoesNotBlockOtherRequests(t *testing.T) {
	release := make(chan struct{})
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"tasks":["late"]}`))
	}))
	defer peer.Close()
	defer close(release)
	ts, _ := newProxyServer(t, peer.URL)

	done := make(chan int, 1)
	go func() {
		res, err := http.Get(ts.URL + "/tasks")
		if err != nil {
			done <- 0
			return
		}
		res.Body.Close()
		done <- res.StatusCode
	}()

	start := time.Now()
	status, _, _ := doRequest(t, http.MethodGet, ts.URL+"/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Less(t, time.Since(start), 2*time.Second)

	select {
	case <-done:
		t.Fatalf("proxied request finished before upstream was released")
	default:
	}
	release <- struct{}{}
	assert.Equal(t, http.StatusOK, <-done)
}
