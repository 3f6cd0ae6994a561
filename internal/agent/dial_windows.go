//go:build windows

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Microsoft/go-winio"

	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

// DialPipe connects to the controller's signal pipe for writing.
func DialPipe(timeout time.Duration) (io.WriteCloser, error) {
	conn, err := winio.DialPipe(shared.PipeName, &timeout)
	if err != nil {
		if errors.Is(err, winio.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", shared.ErrConnectTimeout, shared.PipeName)
		}
		return nil, fmt.Errorf("fail to connect pipe: %w", err)
	}
	return conn, nil
}
