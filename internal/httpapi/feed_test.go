package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/taskrelay/internal/tasks"
)

func dialFeed(t *testing.T, baseURL string, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/tasks/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTaskFeedSendsSnapshotThenAppends(t *testing.T) {
	f := newLocalFixture(t)
	conn := dialFeed(t, f.ts.URL, nil)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot feedSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, feedTypeSnapshot, snapshot.Type)
	assert.Equal(t, tasks.SeedTasks, snapshot.Tasks)

	status, _, _ := doRequest(t, http.MethodPost, f.ts.URL+"/tasks", `{"text":"Visit the moon"}`)
	require.Equal(t, http.StatusOK, status)
	status, _, _ = doRequest(t, http.MethodPost, f.ts.URL+"/tasks", `{"text":""}`)
	require.Equal(t, http.StatusBadRequest, status)
	status, _, _ = doRequest(t, http.MethodPost, f.ts.URL+"/tasks", `{"text":"Pack snacks"}`)
	require.Equal(t, http.StatusOK, status)

	var added feedTaskAdded
	require.NoError(t, conn.ReadJSON(&added))
	assert.Equal(t, feedTaskAdded{Type: feedTypeTaskAdded, Text: "Visit the moon"}, added)
	require.NoError(t, conn.ReadJSON(&added))
	assert.Equal(t, feedTaskAdded{Type: feedTypeTaskAdded, Text: "Pack snacks"}, added)
}

func TestTaskFeedRejectsCrossOrigin(t *testing.T) {
	f := newLocalFixture(t)
	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/tasks/ws"

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, res, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, res)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
