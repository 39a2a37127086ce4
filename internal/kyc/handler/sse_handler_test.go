package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/sse"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// readEvent reads one SSE frame and returns its event and data lines.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStream(t *testing.T) {
	hub := sse.NewHub(zaptest.NewLogger(t))
	r := testutil.SetupRouter()
	r.GET("/events", NewSSEHandler(hub).Stream)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?submission_id=sub-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	event, _ := readEvent(t, reader)
	require.Equal(t, "connected", event)

	hub.Broadcast(sse.Event{EventType: "step_approved", SubmissionID: "sub-2", Data: `{"submission_id":"sub-2"}`})
	hub.Broadcast(sse.Event{EventType: "submission_locked", SubmissionID: "sub-1", Data: `{"submission_id":"sub-1"}`})

	event, data := readEvent(t, reader)
	assert.Equal(t, "submission_locked", event)
	assert.Equal(t, `{"submission_id":"sub-1"}`, data)
}
