//go:build windows
// +build windows

package main

import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"winshield/shared"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procIsWindow                 = user32.NewProc("IsWindow")
	procSetWindowDisplayAffinity = user32.NewProc("SetWindowDisplayAffinity")
	procOutputDebugStringW       = kernel32.NewProc("OutputDebugStringW")
)

// init runs while the host's LoadLibrary call is still in progress. The
// host must never crash because of us, so every failure is a silent
// no-op reported only to the debugger.
func init() {
	defer func() {
		if r := recover(); r != nil {
			debugOut(fmt.Sprintf("winshield agent: panic suppressed: %v", r))
		}
	}()
	applyPending()
}

// AgentRefresh re-reads the payload slot and applies it again. Returns
// 1 on success, 0 otherwise. Lets a resident agent serve a new request
// without a reload.
//
//export AgentRefresh
func AgentRefresh() int32 {
	if applyPending() {
		return 1
	}
	return 0
}

func applyPending() bool {
	payload, ok := readPayload()
	if !ok {
		debugOut("winshield agent: payload slot not found, nothing to do")
		return false
	}
	if err := payload.Validate(); err != nil {
		debugOut("winshield agent: " + err.Error())
		return false
	}

	hwnd := uintptr(payload.Window)
	if ret, _, _ := procIsWindow.Call(hwnd); ret == 0 {
		debugOut(fmt.Sprintf("winshield agent: window 0x%x is gone", hwnd))
		return false
	}

	if err := procSetWindowDisplayAffinity.Find(); err != nil {
		debugOut("winshield agent: SetWindowDisplayAffinity unavailable on this Windows")
		return false
	}
	ret, _, callErr := procSetWindowDisplayAffinity.Call(hwnd, uintptr(uint32(payload.Mode)))
	if ret == 0 {
		debugOut(fmt.Sprintf("winshield agent: SetWindowDisplayAffinity(0x%x, %s) failed: %v",
			hwnd, payload.Mode, callErr))
		return false
	}

	debugOut(fmt.Sprintf("winshield agent: window 0x%x set to %s", hwnd, payload.Mode))
	return true
}

// readPayload opens the controller's named mapping and copies out one
// record. A missing slot just means nobody asked for anything.
func readPayload() (shared.Payload, bool) {
	name, err := windows.UTF16PtrFromString(shared.PayloadObjectName)
	if err != nil {
		return shared.Payload{}, false
	}
	mapping, err := windows.OpenFileMapping(windows.FILE_MAP_READ, false, name)
	if err != nil {
		return shared.Payload{}, false
	}
	defer windows.CloseHandle(mapping)

	view, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, shared.PayloadSize)
	if err != nil {
		return shared.Payload{}, false
	}
	defer windows.UnmapViewOfFile(view)

	buf := make([]byte, shared.PayloadSize)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(view)), shared.PayloadSize))

	payload, err := shared.DecodePayload(buf)
	if err != nil {
		return shared.Payload{}, false
	}
	return payload, true
}

func debugOut(msg string) {
	if s, err := windows.UTF16PtrFromString(msg); err == nil {
		procOutputDebugStringW.Call(uintptr(unsafe.Pointer(s)))
	}
}
