//go:build windows
// +build windows

package inject

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"winshield/shared"
)

// payloadSlot keeps the named payload mapping alive while a load is in
// flight. The agent opens the same name from inside the target and reads
// the record during its attach.
type payloadSlot struct {
	mapping windows.Handle
}

func writePayloadSlot(p shared.Payload) (*payloadSlot, error) {
	name, err := windows.UTF16PtrFromString(shared.PayloadObjectName)
	if err != nil {
		return nil, err
	}

	mapping, err := windows.CreateFileMapping(windows.InvalidHandle, nil,
		windows.PAGE_READWRITE, 0, shared.PayloadSize, name)
	if mapping == 0 {
		return nil, errors.Wrap(err, "failed to create payload mapping")
	}
	// ERROR_ALREADY_EXISTS just means a slot from a previous run is
	// still around. The new record overwrites it.

	view, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, shared.PayloadSize)
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, errors.Wrap(err, "failed to map payload view")
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(view)), shared.PayloadSize), shared.EncodePayload(p))
	windows.UnmapViewOfFile(view)

	return &payloadSlot{mapping: mapping}, nil
}

func (s *payloadSlot) Close() error {
	return windows.CloseHandle(s.mapping)
}
