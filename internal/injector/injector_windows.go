//go:build windows

package injector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

var (
	user32DLL           = windows.NewLazySystemDLL("user32.dll")
	setWindowsHookExW   = user32DLL.NewProc("SetWindowsHookExW")
	unhookWindowsHookEx = user32DLL.NewProc("UnhookWindowsHookEx")
)

const WH_GETMESSAGE = 3

// Injector installs ModuleName's ProcName as a WH_GETMESSAGE hook.
type Injector struct {
	ModuleName string
	ProcName   string

	// Dir holds the module; empty means the controller executable's directory.
	Dir string
}

// Handle is a live hook plus the module backing it.
type Handle struct {
	hook   uintptr
	module windows.Handle
}

// Inject loads the module into this process and hooks the thread owning hwnd.
// Windows maps the module into the target when the hook first fires there.
func (i *Injector) Inject(hwnd uintptr) (*Handle, error) {
	dir := i.Dir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: can not locate executable: %v", ErrModuleNotFound, err)
		}
		dir = filepath.Dir(exe)
	}

	dllPath, err := ResolveModulePath(dir, i.ModuleName)
	if err != nil {
		return nil, err
	}
	logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("START: inject dll -- %s", dllPath))

	rva, err := FindExportRVA(dllPath, i.ProcName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExportNotFound, i.ProcName, err)
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Function '%s' RVA: 0x%x", i.ProcName, rva))

	module, err := windows.LoadLibrary(dllPath)
	if err != nil {
		return nil, fmt.Errorf("%w: can not load dll: %v", ErrInjection, err)
	}

	hook, err := i.install(module, hwnd)
	if err != nil {
		windows.FreeLibrary(module)
		return nil, err
	}

	logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("SUCCEED: inject dll %s", i.ModuleName))
	return &Handle{hook: hook, module: module}, nil
}

func (i *Injector) install(module windows.Handle, hwnd uintptr) (uintptr, error) {
	procAddr, err := windows.GetProcAddress(module, i.ProcName)
	if err != nil || procAddr == 0 {
		return 0, fmt.Errorf("%w: %s: %v", ErrExportNotFound, i.ProcName, err)
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("Hook procedure address: 0x%x", procAddr))

	var pid uint32
	threadID, _ := windows.GetWindowThreadProcessId(windows.HWND(hwnd), &pid)
	if threadID == 0 {
		return 0, fmt.Errorf("%w: hwnd 0x%x", ErrWindowNotFound, hwnd)
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("PID: %d - Target window thread: %d", pid, threadID))

	hook, _, err := setWindowsHookExW.Call(
		uintptr(WH_GETMESSAGE),
		procAddr,
		uintptr(module),
		uintptr(threadID),
	)
	if hook == 0 {
		return 0, fmt.Errorf("%w: %v", ErrHookInstallFailed, err)
	}
	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("PID: %d - Hook handle: 0x%x", pid, hook))
	return hook, nil
}

// Unload removes the hook, then frees the module. The handle must not be used
// afterwards.
func (h *Handle) Unload() error {
	logger.LogMessage(logger.LOGLEVEL_INFO, "START: unload dll")

	var errs []error
	if r, _, err := unhookWindowsHookEx.Call(h.hook); r == 0 {
		errs = append(errs, fmt.Errorf("UnhookWindowsHookEx failed: %v", err))
	}
	if err := windows.FreeLibrary(h.module); err != nil {
		errs = append(errs, fmt.Errorf("FreeLibrary failed: %v", err))
	}
	h.hook, h.module = 0, 0

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.LogMessage(logger.LOGLEVEL_INFO, "SUCCEED: unload dll")
	return nil
}
