//go:build windows

package watcher

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

const (
	sFalse          = 0x00000001
	wbemErrTimedOut = 0x80043001
)

type wmiSource struct {
	unknown     *ole.IUnknown
	wmi         *ole.IDispatch
	service     *ole.VARIANT
	eventSource *ole.VARIANT
}

// openWMI subscribes to Win32_Process instance events. COM is bound to the OS
// thread, so the calling goroutine stays locked until Close.
func openWMI(kind Kind) (source, error) {
	runtime.LockOSThread()

	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("COM initialization failed: %v", err)
		}
	}

	s := &wmiSource{}
	if err := s.connect(kind); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *wmiSource) connect(kind Kind) error {
	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return fmt.Errorf("failed to create WMI locator: %v", err)
	}
	s.unknown = unknown

	wmi, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query WMI interface: %v", err)
	}
	s.wmi = wmi

	service, err := oleutil.CallMethod(wmi, "ConnectServer", nil, "root\\cimv2")
	if err != nil {
		return fmt.Errorf("failed to connect to WMI service: %v", err)
	}
	s.service = service

	class := "__InstanceCreationEvent"
	if kind == Deletion {
		class = "__InstanceDeletionEvent"
	}
	query := fmt.Sprintf(`SELECT * FROM %s WITHIN 1 WHERE TargetInstance ISA 'Win32_Process'`, class)
	eventSource, err := oleutil.CallMethod(service.ToIDispatch(), "ExecNotificationQuery", query)
	if err != nil {
		return fmt.Errorf("failed to execute WMI notification query: %v", err)
	}
	s.eventSource = eventSource

	logger.LogMessage(logger.LOGLEVEL_DEBUG, fmt.Sprintf("WMI %s subscription ready", kind))
	return nil
}

func (s *wmiSource) Next(timeout time.Duration) (*Process, error) {
	ret, err := oleutil.CallMethod(s.eventSource.ToIDispatch(), "NextEvent", int(timeout/time.Millisecond))
	if err != nil {
		if isTimeout(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving WMI event: %v", err)
	}
	defer ret.Clear()

	targetInstance, err := oleutil.GetProperty(ret.ToIDispatch(), "TargetInstance")
	if err != nil {
		return nil, fmt.Errorf("error retrieving TargetInstance: %v", err)
	}
	defer targetInstance.Clear()
	procInfo := targetInstance.ToIDispatch()

	name, err := oleutil.GetProperty(procInfo, "Name")
	if err != nil {
		return nil, fmt.Errorf("error retrieving process name: %v", err)
	}
	defer name.Clear()

	pid, err := oleutil.GetProperty(procInfo, "ProcessId")
	if err != nil {
		return nil, fmt.Errorf("error retrieving process id: %v", err)
	}
	defer pid.Clear()

	p := &Process{
		Name: name.ToString(),
		PID:  uint32(pid.Val),
	}

	// null for processes whose image path is not accessible
	if path, err := oleutil.GetProperty(procInfo, "ExecutablePath"); err == nil {
		p.ExecutablePath = path.ToString()
		path.Clear()
	}
	return p, nil
}

func (s *wmiSource) Close() {
	if s.eventSource != nil {
		s.eventSource.Clear()
	}
	if s.service != nil {
		s.service.Clear()
	}
	if s.wmi != nil {
		s.wmi.Release()
	}
	if s.unknown != nil {
		s.unknown.Release()
	}
	ole.CoUninitialize()
	runtime.UnlockOSThread()
}

func isTimeout(err error) bool {
	var oleErr *ole.OleError
	if !errors.As(err, &oleErr) {
		return false
	}
	if uint32(oleErr.Code()) == wbemErrTimedOut {
		return true
	}
	if excep, ok := oleErr.SubError().(ole.EXCEPINFO); ok {
		return excep.SCODE() == wbemErrTimedOut
	}
	return false
}
