package shared

import (
	"encoding/binary"
	"fmt"
)

// PayloadObjectName is the name of the shared memory section the
// controller creates and the agent opens. The Local\ prefix keeps the
// object in the caller's session namespace.
const PayloadObjectName = `Local\WinShieldPayload`

// PayloadSize is the fixed on-wire size of an encoded Payload:
// 8 bytes window handle, 4 bytes mode, 4 bytes reserved padding.
// The layout is little-endian and shared across bitnesses.
const PayloadSize = 16

// EncodePayload serializes p into the fixed shared memory record layout.
func EncodePayload(p Payload) []byte {
	buf := make([]byte, PayloadSize)
	binary.LittleEndian.PutUint64(buf[0:8], p.Window)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Mode))
	// buf[12:16] stays zero, reserved for future fields
	return buf
}

// DecodePayload parses a shared memory record written by EncodePayload.
func DecodePayload(buf []byte) (Payload, error) {
	if len(buf) < PayloadSize {
		return Payload{}, fmt.Errorf("payload record is %d bytes, want %d", len(buf), PayloadSize)
	}
	p := Payload{
		Window: binary.LittleEndian.Uint64(buf[0:8]),
		Mode:   Mode(binary.LittleEndian.Uint32(buf[8:12])),
	}
	return p, nil
}
