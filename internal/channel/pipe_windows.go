//go:build windows

package channel

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

// Listen creates the message-mode signal pipe. Only clients on this machine can
// connect.
func Listen() (net.Listener, error) {
	l, err := winio.ListenPipe(shared.PipeName, &winio.PipeConfig{
		MessageMode:      true,
		InputBufferSize:  shared.PipeBufferSize,
		OutputBufferSize: shared.PipeBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe %s: %w", shared.PipeName, err)
	}
	return l, nil
}
