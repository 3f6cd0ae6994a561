//go:build !windows

package procutil

import "errors"

func SpawnWakeHelper(name string) error {
	return errors.New("wake helper is only available on windows")
}
