//go:build windows
// +build windows

package inject

import (
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const (
	MEM_COMMIT     = 0x1000
	MEM_RESERVE    = 0x2000
	MEM_RELEASE    = 0x8000
	PAGE_READWRITE = 0x04
	WAIT_TIMEOUT   = 0x00000102
)

// DefaultLoadWait bounds how long a remote LoadLibrary thread may run
// before the target is considered hung.
const DefaultLoadWait = 8 * time.Second

// localBackend runs agent operations through remote threads. Only valid
// when the controller and the target have the same bitness.
type localBackend struct {
	proc windows.Handle
	pid  uint32
}

func (b *localBackend) Evict(names []string) error {
	_, err := EvictModules(b.proc, b.pid, names)
	return err
}

func (b *localBackend) Load(agentPath string) (uint32, error) {
	return RemoteLoad(b.proc, agentPath, DefaultLoadWait)
}

func (b *localBackend) Unload(agentPath string) error {
	_, err := EvictModules(b.proc, b.pid, []string{filepath.Base(agentPath)})
	return err
}

// OpenTargetProcess opens pid with the access remote thread injection
// needs. The launcher shares this with the controller's local backend.
func OpenTargetProcess(pid uint32) (windows.Handle, error) {
	h, err := windows.OpenProcess(injectAccess, false, pid)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open process %d", pid)
	}
	return h, nil
}

// RemoteLoad makes proc load the library at agentPath by running
// LoadLibraryW on a remote thread. It returns the thread's exit code,
// which is nonzero exactly when the load succeeded.
func RemoteLoad(proc windows.Handle, agentPath string, wait time.Duration) (uint32, error) {
	const op = "remote load"

	pathUTF16, err := windows.UTF16FromString(agentPath)
	if err != nil {
		return 0, opErr(op, KindEnvironment, err)
	}
	size := len(pathUTF16) * 2

	remote, err := virtualAllocEx(proc, 0, size, MEM_COMMIT|MEM_RESERVE, PAGE_READWRITE)
	if err != nil {
		return 0, opErr(op, KindRemoteLoad, errors.Wrap(err, "VirtualAllocEx failed"))
	}
	defer virtualFreeEx(proc, remote)

	if err := writeProcessMemory(proc, remote, unsafe.Pointer(&pathUTF16[0]), uintptr(size)); err != nil {
		return 0, opErr(op, KindRemoteLoad, errors.Wrap(err, "WriteProcessMemory failed"))
	}

	loadLibrary, err := kernel32Proc("LoadLibraryW")
	if err != nil {
		return 0, opErr(op, KindEnvironment, err)
	}

	thread, err := createRemoteThread(proc, loadLibrary, remote)
	if err != nil {
		return 0, opErr(op, KindRemoteLoad, errors.Wrap(err, "CreateRemoteThread failed"))
	}
	defer windows.CloseHandle(thread)

	event, err := windows.WaitForSingleObject(thread, uint32(wait.Milliseconds()))
	if err != nil {
		return 0, opErr(op, KindRemoteLoad, errors.Wrap(err, "wait on remote thread failed"))
	}
	if event == WAIT_TIMEOUT {
		return 0, opErrf(op, KindTimeout,
			"remote LoadLibrary thread did not finish within %s", wait)
	}

	code, err := getExitCodeThread(thread)
	if err != nil {
		return 0, opErr(op, KindRemoteLoad, errors.Wrap(err, "GetExitCodeThread failed"))
	}
	if code == 0 {
		return 0, opErrf(op, KindRemoteLoad,
			"LoadLibraryW returned 0 in target, %s failed to load", filepath.Base(agentPath))
	}
	return code, nil
}

// EvictModules force-unloads every module in pid whose file name matches
// one of names, by running FreeLibrary on remote threads. It returns how
// many modules were evicted. A process with no matching module is a
// success.
func EvictModules(proc windows.Handle, pid uint32, names []string) (int, error) {
	const op = "evict agent"

	bases, err := findModuleBases(pid, names)
	if err != nil {
		return 0, opErr(op, KindEnvironment, err)
	}
	if len(bases) == 0 {
		return 0, nil
	}

	freeLibrary, err := kernel32Proc("FreeLibrary")
	if err != nil {
		return 0, opErr(op, KindEnvironment, err)
	}

	evicted := 0
	for _, base := range bases {
		thread, err := createRemoteThread(proc, freeLibrary, base)
		if err != nil {
			return evicted, opErr(op, KindRemoteLoad, errors.Wrap(err, "CreateRemoteThread failed"))
		}
		windows.WaitForSingleObject(thread, uint32(DefaultLoadWait.Milliseconds()))
		windows.CloseHandle(thread)
		evicted++
	}
	return evicted, nil
}

// findModuleBases walks pid's module list and returns the base address
// of every module whose file name matches one of names, ignoring case.
func findModuleBases(pid uint32, names []string) ([]uintptr, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(
		windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, pid)
	if err != nil {
		return nil, errors.Wrapf(err, "module snapshot of pid %d failed", pid)
	}
	defer windows.CloseHandle(snapshot)

	var me windows.ModuleEntry32
	me.Size = uint32(unsafe.Sizeof(me))

	var bases []uintptr
	err = windows.Module32First(snapshot, &me)
	for err == nil {
		modName := windows.UTF16ToString(me.Module[:])
		for _, want := range names {
			if strings.EqualFold(modName, want) {
				bases = append(bases, me.ModBaseAddr)
				break
			}
		}
		err = windows.Module32Next(snapshot, &me)
	}
	if err != windows.ERROR_NO_MORE_FILES {
		return nil, errors.Wrapf(err, "module walk of pid %d failed", pid)
	}
	return bases, nil
}

// kernel32 keeps system DLLs at the same base in every process of the
// same bitness, so a local proc address is valid in the target too.
func kernel32Proc(name string) (uintptr, error) {
	mod, err := windows.GetModuleHandle(windows.StringToUTF16Ptr("kernel32.dll"))
	if err != nil {
		return 0, errors.Wrap(err, "GetModuleHandle(kernel32) failed")
	}
	addr, err := windows.GetProcAddress(mod, name)
	if err != nil {
		return 0, errors.Wrapf(err, "GetProcAddress(%s) failed", name)
	}
	return addr, nil
}

func virtualAllocEx(proc windows.Handle, addr uintptr, size int, allocType, protect uint32) (uintptr, error) {
	ret, _, err := procVirtualAllocEx.Call(
		uintptr(proc),
		addr,
		uintptr(size),
		uintptr(allocType),
		uintptr(protect),
	)
	if ret == 0 {
		return 0, err
	}
	return ret, nil
}

func virtualFreeEx(proc windows.Handle, addr uintptr) error {
	ret, _, err := procVirtualFreeEx.Call(
		uintptr(proc),
		addr,
		0,
		uintptr(MEM_RELEASE),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func writeProcessMemory(proc windows.Handle, baseAddress uintptr, buffer unsafe.Pointer, size uintptr) error {
	var bytesWritten uintptr
	ret, _, err := procWriteProcessMemory.Call(
		uintptr(proc),
		baseAddress,
		uintptr(buffer),
		size,
		uintptr(unsafe.Pointer(&bytesWritten)),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func createRemoteThread(proc windows.Handle, startAddr, param uintptr) (windows.Handle, error) {
	ret, _, err := procCreateRemoteThread.Call(
		uintptr(proc),
		0,
		0,
		startAddr,
		param,
		0,
		0,
	)
	if ret == 0 {
		return 0, err
	}
	return windows.Handle(ret), nil
}

func getExitCodeThread(thread windows.Handle) (uint32, error) {
	var code uint32
	ret, _, err := procGetExitCodeThread.Call(
		uintptr(thread),
		uintptr(unsafe.Pointer(&code)),
	)
	if ret == 0 {
		return 0, err
	}
	return code, nil
}
