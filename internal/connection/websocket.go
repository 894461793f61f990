package connection

import (
	"context"
	"fmt"
	"io"

	"nhooyr.io/websocket"
)

// dialWebSocket connects to a remote serial gateway and exposes the
// WebSocket's binary message stream as a plain byte stream.
func dialWebSocket(ctx context.Context, url string) (io.ReadWriteCloser, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	// Frame boundaries carry no meaning on a serial link, so a byte-stream
	// adapter over binary messages is all that is needed.
	return websocket.NetConn(context.Background(), conn, websocket.MessageBinary), nil
}
