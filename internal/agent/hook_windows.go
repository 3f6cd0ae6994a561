//go:build windows

package agent

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL      = windows.NewLazySystemDLL("user32.dll")
	callNextHookEx = user32DLL.NewProc("CallNextHookEx")
)

// msg mirrors the Win32 MSG structure handed to WH_GETMESSAGE hooks.
type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// HookProc is the WH_GETMESSAGE procedure. lParam points at the MSG being
// retrieved; it is read, never modified, and the chain always continues.
func (a *Agent) HookProc(code int32, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 && lParam != 0 {
		m := (*msg)(unsafe.Pointer(lParam))
		a.Observe(code, m.message, m.wParam)
	}
	r, _, _ := callNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return r
}
