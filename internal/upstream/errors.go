package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind tells apart the ways a fetch can fail.
type ErrorKind string

const (
	KindRequest  ErrorKind = "request"
	KindNetwork  ErrorKind = "network"
	KindTimeout  ErrorKind = "timeout"
	KindCanceled ErrorKind = "canceled"
	KindStatus   ErrorKind = "status"
	KindDecode   ErrorKind = "decode"
)

// Error describes any failure to obtain a TaskCollection from the peer.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s (%s): status %d: %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errMissingTasks = errors.New("response body has no tasks array")

func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
