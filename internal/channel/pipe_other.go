//go:build !windows

package channel

import (
	"errors"
	"net"
)

func Listen() (net.Listener, error) {
	return nil, errors.New("named pipes are only available on Windows")
}
