package events

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/domain/models/explorer"
)

func newTestBroker(t *testing.T, keepAlive time.Duration) *Broker {
	t.Helper()
	b := NewBroker(keepAlive, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(b.Close)
	return b
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := newTestBroker(t, time.Second)

	assert.Equal(t, 0, b.ClientCount())
	ch := b.Subscribe()
	assert.Equal(t, 1, b.ClientCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount())

	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")
}

func TestScopesInvalidated(t *testing.T) {
	b := newTestBroker(t, time.Second)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.ScopesInvalidated([]explorer.Scope{explorer.RootScope(), explorer.FolderScope("f1")})

	first := receive(t, ch)
	assert.Contains(t, first, "event: scope.invalidated\n")
	assert.Contains(t, first, `"scope":"root"`)
	assert.Contains(t, first, `"folder_id":null`)

	second := receive(t, ch)
	assert.Contains(t, second, `"scope":"folder:f1"`)
	assert.Contains(t, second, `"folder_id":"f1"`)
	assert.True(t, strings.HasSuffix(second, "\n\n"))
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ch := b.Subscribe()

	b.Close()
	b.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.ClientCount())

	// No-ops after close
	b.Publish(Event{Type: "x"})
	b.Unsubscribe(ch)
	_, open = <-b.Subscribe()
	assert.False(t, open)
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := newTestBroker(t, 20*time.Millisecond)
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	b.ScopesInvalidated([]explorer.Scope{explorer.FolderScope("abc")})

	reader := bufio.NewReader(resp.Body)
	var sawKeepAlive, sawEvent bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !(sawKeepAlive && sawEvent) {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, ": keepalive"):
			sawKeepAlive = true
		case strings.HasPrefix(line, "data: ") && strings.Contains(line, `"folder:abc"`):
			sawEvent = true
		}
	}
	assert.True(t, sawEvent, "expected scope event on stream")
	assert.True(t, sawKeepAlive, "expected keep-alive comment on stream")
}
