//go:build windows
// +build windows

package inject

import (
	"io"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"winshield/shared"
)

// injectAccess is the process access mask remote thread injection needs.
const injectAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_READ

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	user32   = windows.NewLazySystemDLL("user32.dll")

	procVirtualAllocEx           = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx            = kernel32.NewProc("VirtualFreeEx")
	procWriteProcessMemory       = kernel32.NewProc("WriteProcessMemory")
	procCreateRemoteThread       = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread        = kernel32.NewProc("GetExitCodeThread")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsWindow                 = user32.NewProc("IsWindow")
	procGetWindowDisplayAffinity = user32.NewProc("GetWindowDisplayAffinity")
)

type winSystem struct{}

func newSystem() system { return winSystem{} }

func (winSystem) OwnerPID(hwnd uintptr) (uint32, error) {
	if ret, _, _ := procIsWindow.Call(hwnd); ret == 0 {
		return 0, errors.Errorf("window 0x%x no longer exists", hwnd)
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return 0, errors.Errorf("window 0x%x has no owning process", hwnd)
	}
	return pid, nil
}

func (winSystem) OpenTarget(pid uint32) (Target, error) {
	const op = "open target"
	h, err := windows.OpenProcess(injectAccess, false, pid)
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return nil, opErr(op, KindPrivilege,
				errors.Wrapf(err, "process %d refused injection access, it may run elevated", pid))
		}
		return nil, opErr(op, KindEnvironment,
			errors.Wrapf(err, "failed to open process %d", pid))
	}
	return &winTarget{proc: h, pid: pid}, nil
}

func (winSystem) WritePayload(p shared.Payload) (io.Closer, error) {
	return writePayloadSlot(p)
}

func (winSystem) QueryAffinity(hwnd uintptr) (shared.Mode, bool, error) {
	// Not present before Windows 10 1803. Skip verification there.
	if err := procGetWindowDisplayAffinity.Find(); err != nil {
		return 0, false, nil
	}
	var affinity uint32
	ret, _, callErr := procGetWindowDisplayAffinity.Call(hwnd, uintptr(unsafe.Pointer(&affinity)))
	if ret == 0 {
		return 0, false, errors.Wrap(callErr, "GetWindowDisplayAffinity failed")
	}
	return shared.Mode(affinity), true, nil
}

type winTarget struct {
	proc windows.Handle
	pid  uint32
}

func (t *winTarget) Bits() (int, error) {
	var selfWow, targetWow bool
	if err := windows.IsWow64Process(windows.CurrentProcess(), &selfWow); err != nil {
		return 0, errors.Wrap(err, "IsWow64Process(self) failed")
	}
	if err := windows.IsWow64Process(t.proc, &targetWow); err != nil {
		return 0, errors.Wrapf(err, "IsWow64Process(pid %d) failed", t.pid)
	}
	host64 := shared.PointerBits == 64 || selfWow
	if !host64 || targetWow {
		return 32, nil
	}
	return 64, nil
}

func (t *winTarget) Local() ExecutionBackend {
	return &localBackend{proc: t.proc, pid: t.pid}
}

func (t *winTarget) Delegated(launcherPath string) ExecutionBackend {
	return &delegatedBackend{pid: t.pid, launcher: launcherPath}
}

func (t *winTarget) Close() error {
	return windows.CloseHandle(t.proc)
}
