package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/taskrelay/internal/tasks"
)

const (
	feedTypeSnapshot  = "snapshot"
	feedTypeTaskAdded = "task_added"

	feedWriteTimeout = 10 * time.Second
	feedReadTimeout  = 120 * time.Second
	feedPingInterval = 45 * time.Second
)

type feedSnapshot struct {
	Type  string       `json:"type"`
	Tasks []tasks.Task `json:"tasks"`
}

type feedTaskAdded struct {
	Type string     `json:"type"`
	Text tasks.Task `json:"text"`
}

// handleTaskFeed streams the current list and then every successful append.
func (s *Server) handleTaskFeed(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the snapshot so no append falls between the two.
	sub := s.feed.Subscribe()
	defer sub.Close()

	list, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read tasks")
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.FeedSubscribers.Inc()
	defer s.metrics.FeedSubscribers.Dec()
	s.logger.Record("ws_subscribed", map[string]any{"request_id": requestIDFrom(r.Context())})
	defer s.logger.Record("ws_closed", map[string]any{"request_id": requestIDFrom(r.Context())})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()

		if err := writeFeedJSON(conn, feedSnapshot{Type: feedTypeSnapshot, Tasks: list}); err != nil {
			return
		}
		ping := time.NewTicker(feedPingInterval)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			case text, ok := <-sub.C():
				if !ok {
					return
				}
				if err := writeFeedJSON(conn, feedTaskAdded{Type: feedTypeTaskAdded, Text: text}); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	// The feed is one-way; reads only detect the peer going away and answer pings.
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	}

	cancel()
	<-writerDone
}

func writeFeedJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(v)
}
