// File: internal/gateway/gateway_test.go
package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/loop"
	"github.com/deskhand/deskhand/internal/metrics"
)

// fakeRunner scripts the control-surface behaviour of the loop runner.
type fakeRunner struct {
	startErr error
	stopErr  error
	taskID   string
	status   schemas.StatusResponse

	started []schemas.RunTaskRequest
	stops   int
}

func (f *fakeRunner) Start(req schemas.RunTaskRequest) (string, error) {
	f.started = append(f.started, req)
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.taskID, nil
}

func (f *fakeRunner) Stop() error {
	f.stops++
	return f.stopErr
}

func (f *fakeRunner) Status() schemas.StatusResponse {
	return f.status
}

func newTestServer(t *testing.T, runner *fakeRunner, events <-chan loop.Event) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Deps{
		Config:  config.GatewayConfig{ListenAddr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		Runner:  runner,
		Events:  events,
		Metrics: metrics.New().Handler(),
		Logger:  zaptest.NewLogger(t),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRunTaskAccepted(t *testing.T) {
	runner := &fakeRunner{taskID: "0826-120000_tid_default_abcdef"}
	_, ts := newTestServer(t, runner, nil)

	resp := postJSON(t, ts.URL+"/run_task", `{"task":"open the settings app","trace_name":"demo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[schemas.RunTaskResponse](t, resp)
	assert.Equal(t, "started", body.Status)
	assert.Equal(t, runner.taskID, body.TaskID)

	require.Len(t, runner.started, 1)
	assert.Equal(t, "open the settings app", runner.started[0].Task)
	assert.Equal(t, "demo", runner.started[0].TraceName)
}

func TestRunTaskConflictWhileActive(t *testing.T) {
	runner := &fakeRunner{startErr: loop.ErrRunActive}
	_, ts := newTestServer(t, runner, nil)

	resp := postJSON(t, ts.URL+"/run_task", `{"task":"second task"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[schemas.APIError](t, resp)
	assert.Contains(t, body.Error, "already active")
}

func TestRunTaskRejectsBadBody(t *testing.T) {
	runner := &fakeRunner{}
	_, ts := newTestServer(t, runner, nil)

	resp := postJSON(t, ts.URL+"/run_task", `{"task":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, runner.started)

	resp = postJSON(t, ts.URL+"/run_task", `{"task":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, runner.started)
}

func TestStopWithoutRun(t *testing.T) {
	runner := &fakeRunner{stopErr: loop.ErrNoRun}
	_, ts := newTestServer(t, runner, nil)

	resp := postJSON(t, ts.URL+"/stop", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[schemas.APIError](t, resp)
	assert.Contains(t, body.Error, "no run is active")
}

func TestStopActiveRun(t *testing.T) {
	runner := &fakeRunner{}
	_, ts := newTestServer(t, runner, nil)

	resp := postJSON(t, ts.URL+"/stop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[schemas.StopResponse](t, resp)
	assert.Equal(t, "stopping", body.Status)
	assert.Equal(t, 1, runner.stops)
}

func TestStatusEndpoint(t *testing.T) {
	runner := &fakeRunner{status: schemas.StatusResponse{State: "RUNNING", TaskID: "tid-1", Step: 4}}
	_, ts := newTestServer(t, runner, nil)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[schemas.StatusResponse](t, resp)
	assert.Equal(t, "RUNNING", body.State)
	assert.Equal(t, "tid-1", body.TaskID)
	assert.Equal(t, 4, body.Step)
}

func TestHealthzAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{}, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventStreamBroadcast(t *testing.T) {
	events := make(chan loop.Event, 8)
	s, ts := newTestServer(t, &fakeRunner{}, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.run(ctx, events)

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the registration land before broadcasting.
	require.Eventually(t, func() bool {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		return len(s.hub.clients) == 1
	}, 2*time.Second, 5*time.Millisecond)

	events <- loop.Event{Type: loop.EventState, Data: "RUNNING", Timestamp: time.Now()}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got loop.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, loop.EventState, got.Type)
	assert.Equal(t, "RUNNING", got.Data)
}
