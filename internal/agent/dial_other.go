//go:build !windows

package agent

import (
	"errors"
	"io"
	"time"
)

func DialPipe(time.Duration) (io.WriteCloser, error) {
	return nil, errors.New("named pipes are only available on Windows")
}
