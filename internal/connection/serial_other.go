//go:build !linux

package connection

import (
	"fmt"
	"io"
)

// Serial devices are configured through Linux termios; on other platforms
// use a tcp:// or ws:// gateway target instead.
func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("serial target %s: direct serial access is only supported on linux", path)
}
