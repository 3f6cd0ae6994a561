// Package shared holds the values the controller and the hook module must agree on.
package shared

import "time"

const (
	// PipeName is the named pipe the hook module writes signals to.
	PipeName = `\\.\pipe\msg_notify`

	// PipeBufferSize is the in/out buffer size of the server pipe.
	PipeBufferSize = 1024

	// HookModuleName is the hook DLL, looked up next to the controller executable.
	HookModuleName = "msghook.dll"

	// HookProcName is the exported hook procedure of HookModuleName.
	HookProcName = "MsgHookProc"

	// NewMessageID and NewMessageWParam form the sentinel pair the target posts
	// on its UI thread when a message arrives.
	NewMessageID     uint32  = 0x0118
	NewMessageWParam uintptr = 0xFFF8

	// SignalNewMessage is the only byte value with a meaning on the pipe.
	SignalNewMessage byte = 1
)

const (
	TargetProcessName     = "Weixin.exe"
	TargetWindowTitle     = "微信"
	ControllerProcessName = "msgnotify.exe"
	HelperProcessName     = "cmd.exe"
)

const (
	AgentPollInterval      = 200 * time.Millisecond
	AgentReconnectInterval = 1 * time.Second
	AgentDialTimeout       = 3 * time.Second

	ChannelPollInterval  = 500 * time.Millisecond
	ChannelRetryInterval = 1 * time.Second

	WatchPollTimeout = 1 * time.Second

	InjectAttempts      = 10
	InjectRetryInterval = 1 * time.Second

	ShowDuration = 10 * time.Second
)
