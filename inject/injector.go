package inject

import (
	"io"
	"sync"

	"winshield/shared"
)

// ExecutionBackend runs agent lifecycle operations inside a target
// process. The same-bitness backend drives remote threads directly; the
// cross-bitness backend shells out to a launcher of the target's width.
type ExecutionBackend interface {
	// Evict force-unloads every loaded module whose file name matches
	// one of names. A target with no matching module is a success.
	Evict(names []string) error
	// Load makes the target load the agent library and returns the
	// nonzero token reported by the remote load. The agent applies the
	// pending payload while loading.
	Load(agentPath string) (uint32, error)
	// Unload removes the named agent library from the target again.
	Unload(agentPath string) error
}

// Target is an opened injection target process.
type Target interface {
	// Bits reports the target's pointer width, 32 or 64.
	Bits() (int, error)
	// Local returns the remote thread backend for same-bitness targets.
	Local() ExecutionBackend
	// Delegated returns the backend that defers to the given launcher
	// executable for cross-bitness targets.
	Delegated(launcherPath string) ExecutionBackend
	Close() error
}

// system is the window-and-process surface the orchestration runs
// against. The real implementation talks to Win32; tests swap in fakes.
type system interface {
	// OwnerPID resolves the process owning hwnd. Fails when the window
	// is gone.
	OwnerPID(hwnd uintptr) (uint32, error)
	// OpenTarget opens the process with the access injection needs.
	OpenTarget(pid uint32) (Target, error)
	// WritePayload publishes p in the shared payload slot. The slot
	// stays alive until the returned closer is closed.
	WritePayload(p shared.Payload) (io.Closer, error)
	// QueryAffinity reads hwnd's current display affinity. ok is false
	// when the platform cannot answer, in which case the result is
	// ignored.
	QueryAffinity(hwnd uintptr) (mode shared.Mode, ok bool, err error)
}

// Injector applies display affinity changes to windows owned by other
// processes. It is safe for concurrent use; requests are serialized
// internally because the payload slot holds a single record.
type Injector struct {
	art            Artifacts
	sys            system
	controllerBits int

	mu sync.Mutex
}

// New builds an Injector that deploys artifacts from art.
func New(art Artifacts) *Injector {
	return &Injector{
		art:            art,
		sys:            newSystem(),
		controllerBits: shared.PointerBits,
	}
}

// Apply sets the display affinity of hwnd by injecting the agent into
// the window's owning process. With autoUnload the agent is removed
// again once the change is verified; otherwise it stays resident until
// RemoveAgent or process exit.
func (i *Injector) Apply(hwnd uintptr, mode shared.Mode, autoUnload bool) error {
	const op = "apply affinity"

	payload := shared.Payload{Window: uint64(hwnd), Mode: mode}
	if err := payload.Validate(); err != nil {
		return opErr(op, KindEnvironment, err)
	}

	// Fail before touching the target if nothing at all is deployed.
	if _, err := i.art.AgentPath(i.controllerBits); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	pid, err := i.sys.OwnerPID(hwnd)
	if err != nil {
		return ensureKind(op, KindInvalidWindow, err)
	}

	tgt, err := i.sys.OpenTarget(pid)
	if err != nil {
		return ensureKind(op, KindPrivilege, err)
	}
	defer tgt.Close()

	bits, err := tgt.Bits()
	if err != nil {
		return ensureKind(op, KindEnvironment, err)
	}
	profile := shared.ArchProfile{ControllerBits: i.controllerBits, TargetBits: bits}

	agentPath, err := i.art.AgentPath(bits)
	if err != nil {
		if !profile.Match() {
			return opErrf(op, KindArchMismatch,
				"target pid %d is %d-bit and no %d-bit agent is deployed", pid, bits, bits)
		}
		return err
	}

	var backend ExecutionBackend
	if profile.Match() {
		backend = tgt.Local()
	} else {
		launcher, lerr := i.art.LauncherPath(bits)
		if lerr != nil {
			return lerr
		}
		backend = tgt.Delegated(launcher)
	}

	slot, err := i.sys.WritePayload(payload)
	if err != nil {
		return ensureKind(op, KindEnvironment, err)
	}
	defer slot.Close()

	if profile.Match() {
		// A fresh agent copy must observe the new payload. The
		// delegated launcher evicts on its own before loading.
		if err := backend.Evict(shared.AgentFileNames()); err != nil {
			return ensureKind(op, KindEnvironment, err)
		}
	}

	if _, err := backend.Load(agentPath); err != nil {
		return ensureKind(op, KindRemoteLoad, err)
	}

	if got, ok, qerr := i.sys.QueryAffinity(hwnd); qerr == nil && ok && got != mode {
		return opErrf(op, KindVerification,
			"window 0x%x reports affinity %s after requesting %s", hwnd, got, mode)
	}

	if autoUnload {
		// Best effort. The affinity change already took effect.
		_ = backend.Unload(agentPath)
	}

	return nil
}

// RemoveAgent unloads any resident agent copy from the process owning
// hwnd. A target without an agent is a success.
func (i *Injector) RemoveAgent(hwnd uintptr) error {
	const op = "remove agent"

	i.mu.Lock()
	defer i.mu.Unlock()

	pid, err := i.sys.OwnerPID(hwnd)
	if err != nil {
		return ensureKind(op, KindInvalidWindow, err)
	}

	tgt, err := i.sys.OpenTarget(pid)
	if err != nil {
		return ensureKind(op, KindPrivilege, err)
	}
	defer tgt.Close()

	bits, err := tgt.Bits()
	if err != nil {
		return ensureKind(op, KindEnvironment, err)
	}
	profile := shared.ArchProfile{ControllerBits: i.controllerBits, TargetBits: bits}

	if profile.Match() {
		if err := tgt.Local().Evict(shared.AgentFileNames()); err != nil {
			return ensureKind(op, KindEnvironment, err)
		}
		return nil
	}

	launcher, err := i.art.LauncherPath(bits)
	if err != nil {
		return err
	}
	agentPath, err := i.art.AgentPath(bits)
	if err != nil {
		return err
	}
	if err := tgt.Delegated(launcher).Unload(agentPath); err != nil {
		return ensureKind(op, KindEnvironment, err)
	}
	return nil
}

// ensureKind classifies err as kind unless it already carries one.
func ensureKind(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}
	return opErr(op, kind, err)
}
