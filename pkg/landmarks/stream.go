package landmarks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-neurodrive/internal/httpc"
	"github.com/teslashibe/go-neurodrive/internal/log"
)

// StreamConfig holds face-mesh sidecar connection settings
type StreamConfig struct {
	URL              string        // e.g. ws://127.0.0.1:8765/landmarks
	HandshakeTimeout time.Duration // websocket dial timeout
	ReadTimeout      time.Duration // reconnect if no frame arrives within this
	MinBackoff       time.Duration // first reconnect delay
	MaxBackoff       time.Duration // reconnect delay cap
}

// DefaultStreamConfig returns defaults for a sidecar on the same host
func DefaultStreamConfig(url string) StreamConfig {
	return StreamConfig{
		URL:              url,
		HandshakeTimeout: 5 * time.Second,
		ReadTimeout:      3 * time.Second, // ~90 frames at 30 fps
		MinBackoff:       250 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
	}
}

// StreamSource receives landmark frames from a face-mesh sidecar over a
// websocket, one JSON frame per text message. Dropped connections are
// re-dialed with exponential backoff until the context ends.
type StreamSource struct {
	cfg    StreamConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	backoff time.Duration
	closed  bool
}

// NewStreamSource creates a source; the connection is dialed lazily on
// the first call to Next.
func NewStreamSource(cfg StreamConfig) *StreamSource {
	return &StreamSource{
		cfg:     cfg,
		dialer:  httpc.WebsocketDialer(cfg.HandshakeTimeout),
		logger:  log.With("component", "landmarks.stream", "url", cfg.URL),
		backoff: cfg.MinBackoff,
	}
}

// Next returns the next frame pushed by the sidecar.
func (s *StreamSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		conn, err := s.connection(ctx)
		if err != nil {
			return Frame{}, err
		}

		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		// Unblock the read when the caller gives up
		stop := context.AfterFunc(ctx, func() {
			conn.SetReadDeadline(time.Now())
		})
		msgType, data, err := conn.ReadMessage()
		stop()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Frame{}, ctxErr
			}
			s.logger.Warn("landmark stream read failed, reconnecting", "error", err)
			s.drop(conn)
			continue
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			s.logger.Warn("skipping malformed landmark frame", "error", err)
			continue
		}
		return frame, nil
	}
}

// connection returns the live connection, dialing with backoff if needed.
func (s *StreamSource) connection(ctx context.Context) (*websocket.Conn, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if s.conn != nil {
			conn := s.conn
			s.mu.Unlock()
			return conn, nil
		}
		s.mu.Unlock()

		conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
		if err == nil {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				conn.Close()
				return nil, ErrClosed
			}
			s.conn = conn
			s.backoff = s.cfg.MinBackoff
			s.mu.Unlock()
			s.logger.Info("connected to landmark stream")
			return conn, nil
		}

		wait := s.nextBackoff()
		s.logger.Warn("landmark stream dial failed", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial %s: %w", s.cfg.URL, ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (s *StreamSource) nextBackoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	wait := s.backoff
	if wait <= 0 {
		wait = 100 * time.Millisecond
	}
	s.backoff = wait * 2
	if s.cfg.MaxBackoff > 0 && s.backoff > s.cfg.MaxBackoff {
		s.backoff = s.cfg.MaxBackoff
	}
	return wait
}

func (s *StreamSource) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
	}
	conn.Close()
}

// Close shuts the connection down; subsequent Next calls return ErrClosed.
func (s *StreamSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn == nil {
		return nil
	}

	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := s.conn.Close()
	s.conn = nil
	return err
}
