package landmarks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sidecar serves a fixed list of messages per connection, then hangs up.
func sidecar(t *testing.T, messages ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conns.Add(1)

		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testStreamConfig(url string) StreamConfig {
	cfg := DefaultStreamConfig(url)
	cfg.MinBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	return cfg
}

func TestStreamSource_ReceivesFrames(t *testing.T) {
	srv, _ := sidecar(t,
		`{"timestamp":1.0,"width":640,"height":480,"face_present":true,"points":[[0.5,0.5,0]]}`,
		`garbage`,
		`{"timestamp":1.1,"width":640,"height":480,"face_present":false}`,
	)

	src := NewStreamSource(testStreamConfig(wsURL(srv)))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.Timestamp)
	assert.True(t, f.FacePresent)

	// The malformed message is skipped
	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.1, f.Timestamp)
	assert.False(t, f.FacePresent)
}

func TestStreamSource_Reconnects(t *testing.T) {
	srv, conns := sidecar(t, `{"timestamp":2.0,"face_present":false}`)

	src := NewStreamSource(testStreamConfig(wsURL(srv)))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		f, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2.0, f.Timestamp)
	}
	assert.GreaterOrEqual(t, conns.Load(), int32(3))
}

func TestStreamSource_ContextCancelWhileDialing(t *testing.T) {
	// Nothing listens here
	src := NewStreamSource(testStreamConfig("ws://127.0.0.1:1/landmarks"))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := src.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStreamSource_Closed(t *testing.T) {
	src := NewStreamSource(testStreamConfig("ws://127.0.0.1:1/landmarks"))
	require.NoError(t, src.Close())

	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
