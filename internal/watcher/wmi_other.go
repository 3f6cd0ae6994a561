//go:build !windows

package watcher

import "errors"

func openWMI(Kind) (source, error) {
	return nil, errors.New("WMI process events are only available on Windows")
}
