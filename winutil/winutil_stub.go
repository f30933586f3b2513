//go:build !windows
// +build !windows

package winutil

import "fmt"

// Window manipulation is Windows-only. The stubs keep consumers
// compiling on other platforms.

func errUnsupported() error {
	return fmt.Errorf("window operations are only supported on Windows")
}

func ListWindows(skipPID uint32) ([]WindowInfo, error) {
	return nil, errUnsupported()
}

func OwnerPID(hwnd uintptr) uint32 { return 0 }

func IsWindow(hwnd uintptr) bool { return false }

func IsExcludedFromCapture(hwnd uintptr) bool { return false }

func IsTopMost(hwnd uintptr) bool { return false }

func SetTopMost(hwnd uintptr, on bool) error { return errUnsupported() }

func Hide(hwnd uintptr) error { return errUnsupported() }

func Restore(hwnd uintptr) error { return errUnsupported() }
