package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TaskCollection is the body shape served by a task service on GET /tasks.
type TaskCollection struct {
	Tasks []string `json:"tasks"`
}

// Client reads the task collection from a peer service. Each call is a single
// attempt: no retries and no caching.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  hc,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchTasks issues GET {baseURL}/tasks. Any transport failure, non-2xx
// status or undecodable body is returned as *Error.
func (c *Client) FetchTasks(ctx context.Context) (TaskCollection, error) {
	target := c.baseURL + "/tasks"
	fail := func(kind ErrorKind, status int, err error) (TaskCollection, error) {
		return TaskCollection{}, &Error{Kind: kind, URL: target, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(KindRequest, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fail(classifyTransport(err), 0, fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fail(KindStatus, res.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))))
	}

	var out TaskCollection
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fail(KindDecode, res.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.Tasks == nil {
		return fail(KindDecode, res.StatusCode, errMissingTasks)
	}
	return out, nil
}
