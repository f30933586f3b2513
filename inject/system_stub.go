//go:build !windows
// +build !windows

package inject

import (
	"fmt"
	"io"

	"winshield/shared"
)

// Display affinity only exists on Windows. The stub keeps the package
// compiling elsewhere so the orchestration and its tests stay portable.

type stubSystem struct{}

func newSystem() system { return stubSystem{} }

func errUnsupported() error {
	return fmt.Errorf("display affinity injection is only supported on Windows")
}

func (stubSystem) OwnerPID(hwnd uintptr) (uint32, error) {
	return 0, errUnsupported()
}

func (stubSystem) OpenTarget(pid uint32) (Target, error) {
	return nil, errUnsupported()
}

func (stubSystem) WritePayload(p shared.Payload) (io.Closer, error) {
	return nil, errUnsupported()
}

func (stubSystem) QueryAffinity(hwnd uintptr) (shared.Mode, bool, error) {
	return 0, false, errUnsupported()
}
