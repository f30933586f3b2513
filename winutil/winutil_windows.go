//go:build windows
// +build windows

package winutil

import (
	"path/filepath"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const (
	WM_GETTEXT       = 0x000D
	SMTO_ABORTIFHUNG = 0x0002
	GWL_EXSTYLE      = -20
	WS_EX_TOPMOST    = 0x00000008
	SWP_NOSIZE       = 0x0001
	SWP_NOMOVE       = 0x0002
	SW_HIDE          = 0
	SW_SHOW          = 5

	titleTimeoutMS = 100
	maxTitleLen    = 512
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procSendMessageTimeoutW      = user32.NewProc("SendMessageTimeoutW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procShowWindow               = user32.NewProc("ShowWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procGetWindowDisplayAffinity = user32.NewProc("GetWindowDisplayAffinity")

	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procQueryFullProcessImageName = kernel32.NewProc("QueryFullProcessImageNameW")
)

// NewCallback trampolines are never released and the process-wide
// supply is small, so the EnumWindows callback is created exactly once
// and fed its per-call state through enumState.
var (
	enumOnce     sync.Once
	enumCallback uintptr

	enumMu    sync.Mutex
	enumState *enumCollector
)

type enumCollector struct {
	skipPID uint32
	out     []WindowInfo
}

func enumWindowsProc(hwnd uintptr, _ uintptr) uintptr {
	if ret, _, _ := procIsWindowVisible.Call(hwnd); ret == 0 {
		return 1
	}
	title := windowTitle(hwnd)
	if title == "" {
		return 1
	}
	pid := OwnerPID(hwnd)
	if pid == 0 || pid == enumState.skipPID {
		return 1
	}
	enumState.out = append(enumState.out, WindowInfo{
		Handle:   hwnd,
		Title:    title,
		Process:  processName(pid),
		PID:      pid,
		Excluded: IsExcludedFromCapture(hwnd),
		TopMost:  IsTopMost(hwnd),
	})
	return 1
}

// ListWindows returns every visible titled top-level window, skipping
// windows owned by skipPID when it is nonzero. Titles are fetched with
// a short timeout so hung windows do not stall the walk.
func ListWindows(skipPID uint32) ([]WindowInfo, error) {
	enumOnce.Do(func() {
		enumCallback = syscall.NewCallback(enumWindowsProc)
	})

	enumMu.Lock()
	defer enumMu.Unlock()
	enumState = &enumCollector{skipPID: skipPID}
	defer func() { enumState = nil }()

	if ret, _, err := procEnumWindows.Call(enumCallback, 0); ret == 0 {
		return nil, errors.Wrap(err, "EnumWindows failed")
	}
	return enumState.out, nil
}

func windowTitle(hwnd uintptr) string {
	buf := make([]uint16, maxTitleLen)
	var copied uintptr
	procSendMessageTimeoutW.Call(
		hwnd,
		WM_GETTEXT,
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])),
		SMTO_ABORTIFHUNG,
		titleTimeoutMS,
		uintptr(unsafe.Pointer(&copied)),
	)
	return windows.UTF16ToString(buf)
}

// OwnerPID returns the process owning hwnd, or 0.
func OwnerPID(hwnd uintptr) uint32 {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return pid
}

func processName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	ret, _, _ := procQueryFullProcessImageName.Call(
		uintptr(h),
		0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if ret == 0 {
		return ""
	}
	return filepath.Base(windows.UTF16ToString(buf[:size]))
}

// IsWindow reports whether hwnd still names a live window.
func IsWindow(hwnd uintptr) bool {
	ret, _, _ := procIsWindow.Call(hwnd)
	return ret != 0
}

// IsExcludedFromCapture reads hwnd's display affinity. Works on any
// window regardless of owner, unlike setting it.
func IsExcludedFromCapture(hwnd uintptr) bool {
	if err := procGetWindowDisplayAffinity.Find(); err != nil {
		return false
	}
	var affinity uint32
	ret, _, _ := procGetWindowDisplayAffinity.Call(hwnd, uintptr(unsafe.Pointer(&affinity)))
	return ret != 0 && affinity&0x11 == 0x11
}

// IsTopMost reports whether hwnd has the always-on-top style bit.
func IsTopMost(hwnd uintptr) bool {
	index := int32(GWL_EXSTYLE)
	style, _, _ := procGetWindowLongW.Call(hwnd, uintptr(uint32(index)))
	return uint32(style)&WS_EX_TOPMOST != 0
}

// SetTopMost toggles hwnd's always-on-top state.
func SetTopMost(hwnd uintptr, on bool) error {
	insertAfter := ^uintptr(0) // HWND_TOPMOST (-1)
	if !on {
		insertAfter = ^uintptr(1) // HWND_NOTOPMOST (-2)
	}
	ret, _, err := procSetWindowPos.Call(hwnd, insertAfter, 0, 0, 0, 0, SWP_NOMOVE|SWP_NOSIZE)
	if ret == 0 {
		return errors.Wrapf(err, "SetWindowPos on 0x%x failed", hwnd)
	}
	return nil
}

// Hide makes hwnd invisible. The window stays alive and can be brought
// back with Restore.
func Hide(hwnd uintptr) error {
	if !IsWindow(hwnd) {
		return errors.Errorf("window 0x%x no longer exists", hwnd)
	}
	procShowWindow.Call(hwnd, SW_HIDE)
	return nil
}

// Restore makes a hidden window visible again and brings it forward.
func Restore(hwnd uintptr) error {
	if !IsWindow(hwnd) {
		return errors.Errorf("window 0x%x no longer exists", hwnd)
	}
	procShowWindow.Call(hwnd, SW_SHOW)
	procSetForegroundWindow.Call(hwnd)
	return nil
}
