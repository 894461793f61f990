// Package connection opens the duplex byte streams the protocol stack runs
// over. The codecs only ever see an io.ReadWriteCloser; whether the bytes
// travel over a local tty, a ser2net TCP bridge, or a WebSocket gateway is
// decided here by the target syntax:
//
//	/dev/ttyACM0          local serial device
//	tcp://host:port       TCP bridge
//	ws://... / wss://...  WebSocket gateway (binary messages)
package connection

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
)

// Options tunes transport setup. Baud applies to serial targets only.
type Options struct {
	Baud int
}

// DefaultBaud is used when no baud rate is configured.
const DefaultBaud = 115200

// Dial opens the byte stream for target. The returned stream is exclusively
// owned by the caller; a frame decoder instance must be fed from a single
// reader.
func Dial(ctx context.Context, target string, opts Options) (io.ReadWriteCloser, error) {
	switch {
	case strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://"):
		return dialWebSocket(ctx, target)
	case strings.HasPrefix(target, "tcp://"):
		return dialTCP(ctx, strings.TrimPrefix(target, "tcp://"))
	case strings.HasPrefix(target, "/") || strings.HasPrefix(target, "COM"):
		baud := opts.Baud
		if baud == 0 {
			baud = DefaultBaud
		}
		return openSerial(target, baud)
	}
	return nil, fmt.Errorf("unrecognized target %q (want a device path, tcp:// or ws:// URL)", target)
}

func dialTCP(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return conn, nil
}
