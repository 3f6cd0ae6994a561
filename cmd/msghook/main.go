//go:build windows

// Command msghook is built with -buildmode=c-shared into msghook.dll. The
// controller installs MsgHookProc as a WH_GETMESSAGE hook on the target's UI
// thread, which maps this module into the target process.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/codeyourweb/go-win-msg-notify/internal/agent"
	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
	"github.com/codeyourweb/go-win-msg-notify/internal/procutil"
	"github.com/codeyourweb/go-win-msg-notify/internal/shared"
)

var (
	hookAgent *agent.Agent
	anchor    byte
)

func init() {
	// the host process owns the console
	logger.SetOutput(io.Discard)

	hookAgent = agent.New(shared.TargetProcessName, agent.DialPipe)
	if !hookAgent.OnAttach(procutil.CurrentExeName()) {
		return
	}

	logger.InitLogger(logger.LOGLEVEL_DEBUG)
	logger.SetLogToFile(filepath.Join(os.TempDir(), "msghook.log"))
	pin()
}

// pin keeps the module mapped for the life of the host process. The Go runtime
// cannot be torn down, so the loader must never unmap it after UnhookWindowsHookEx.
func pin() {
	var self windows.Handle
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS|windows.GET_MODULE_HANDLE_EX_FLAG_PIN,
		(*uint16)(unsafe.Pointer(&anchor)),
		&self,
	)
	if err != nil {
		logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Failed to pin hook module: %v", err))
	}
}

//export MsgHookProc
func MsgHookProc(code C.int, wParam C.uintptr_t, lParam C.intptr_t) C.intptr_t {
	return C.intptr_t(hookAgent.HookProc(int32(code), uintptr(wParam), uintptr(lParam)))
}

// AgentDetach stops the forwarding worker. The controller never calls it
// across processes; it is exported for hosts that unload the agent in-process.
//
//export AgentDetach
func AgentDetach() {
	hookAgent.OnDetach()
}

func main() {}
