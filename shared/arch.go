package shared

// PointerBits is the pointer width of this binary, 32 or 64.
const PointerBits = 32 << (^uintptr(0) >> 63)

// ArchProfile captures the bitness of the controller process and of an
// injection target. Remote thread loading only works when the two match;
// otherwise the work is delegated to a launcher of the opposite bitness.
type ArchProfile struct {
	ControllerBits int
	TargetBits     int
}

// Match reports whether a remote thread from the controller can run
// inside the target.
func (a ArchProfile) Match() bool {
	return a.ControllerBits == a.TargetBits
}
