//go:build windows

package window

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL   = windows.NewLazySystemDLL("user32.dll")
	findWindowW = user32DLL.NewProc("FindWindowW")
	isWindow    = user32DLL.NewProc("IsWindow")
)

// FindByTitle returns the top-level window whose title is exactly title.
func FindByTitle(title string) (uintptr, bool) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, false
	}
	hwnd, _, _ := findWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return 0, false
	}
	if valid, _, _ := isWindow.Call(hwnd); valid == 0 {
		return 0, false
	}
	return hwnd, true
}
