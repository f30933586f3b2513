// Package inject loads the display affinity agent into the process that
// owns a target window and drives it through the shared payload slot.
package inject

import "fmt"

// Kind classifies injection failures so callers can react without
// parsing message text.
type Kind int

const (
	// KindEnvironment covers missing artifacts and broken local state,
	// such as an absent agent DLL or a payload slot that cannot be
	// created.
	KindEnvironment Kind = iota
	// KindInvalidWindow means the target window handle no longer names
	// a live window.
	KindInvalidWindow
	// KindPrivilege means the target process refused to open, usually
	// an elevated or protected process.
	KindPrivilege
	// KindArchMismatch means the target has a different bitness and the
	// opposite-bitness artifacts needed to delegate are not deployed.
	KindArchMismatch
	// KindTimeout means the remote load did not finish within the wait
	// budget. The target may be hung.
	KindTimeout
	// KindRemoteLoad means the remote thread ran but the agent failed
	// to load inside the target.
	KindRemoteLoad
	// KindVerification means the agent loaded but the window did not
	// end up with the requested affinity.
	KindVerification
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindInvalidWindow:
		return "invalid-window"
	case KindPrivilege:
		return "privilege"
	case KindArchMismatch:
		return "arch-mismatch"
	case KindTimeout:
		return "timeout"
	case KindRemoteLoad:
		return "remote-load"
	case KindVerification:
		return "verification"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure type returned by Injector operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func opErrf(op string, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure classification from err, walking wrapped
// errors. The second return is false when err carries no Kind.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if ie, ok := err.(*Error); ok {
			return ie.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
