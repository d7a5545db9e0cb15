// Package httpc provides shared dial settings for outbound connections.
// Use this instead of zero-value dialers to ensure timeouts are set.
package httpc

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Default timeouts for outbound connections.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultKeepAlive      = 30 * time.Second
	DefaultBufferSize     = 64 * 1024
)

// NetDialer returns a TCP dialer with the shared connect timeout and
// keep-alive. A non-positive timeout uses DefaultConnectTimeout.
func NetDialer(timeout time.Duration) *net.Dialer {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: DefaultKeepAlive,
	}
}

// WebsocketDialer returns a websocket dialer for the landmark sidecar.
// Read buffers are sized for a full 478-point mesh frame.
func WebsocketDialer(handshake time.Duration) *websocket.Dialer {
	return &websocket.Dialer{
		NetDialContext:   NetDialer(handshake).DialContext,
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshake,
		ReadBufferSize:   DefaultBufferSize,
	}
}
