// Package injector installs the hook module on the target window's thread.
package injector

import (
	"errors"
	"fmt"
)

// ErrInjection is the parent of every failure returned by Inject.
var ErrInjection = errors.New("inject dll fail")

var (
	ErrModuleNotFound    = fmt.Errorf("%w: dll does not exist", ErrInjection)
	ErrExportNotFound    = fmt.Errorf("%w: can not load hook function", ErrInjection)
	ErrWindowNotFound    = fmt.Errorf("%w: can not find target window", ErrInjection)
	ErrHookInstallFailed = fmt.Errorf("%w: set hook fail", ErrInjection)
)
