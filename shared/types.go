package shared

import "fmt"

// Mode is a window display affinity value as understood by
// SetWindowDisplayAffinity.
type Mode uint32

const (
	// ModeNormal makes the window visible to screen capture again.
	ModeNormal Mode = 0x00000000
	// ModeExcludeFromCapture hides the window from capture APIs while
	// keeping it visible on screen. Requires Windows 10 2004 or later.
	ModeExcludeFromCapture Mode = 0x00000011
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeExcludeFromCapture:
		return "exclude-from-capture"
	default:
		return fmt.Sprintf("mode(0x%x)", uint32(m))
	}
}

// Valid reports whether m is one of the modes the agent will accept.
func (m Mode) Valid() bool {
	return m == ModeNormal || m == ModeExcludeFromCapture
}

// Payload is the request record handed from the controller to the agent
// through the shared memory slot. One slot holds exactly one request.
type Payload struct {
	// Window is the target window handle, widened to 64 bits so the
	// record layout is identical for 32-bit and 64-bit readers.
	Window uint64
	// Mode is the affinity the agent should apply to Window.
	Mode Mode
}

// Validate rejects records an agent would refuse to act on.
func (p Payload) Validate() error {
	if p.Window == 0 {
		return fmt.Errorf("payload has no window handle")
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("payload mode 0x%x is not a known affinity", uint32(p.Mode))
	}
	return nil
}
