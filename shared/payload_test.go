package shared

import (
	"bytes"
	"testing"
)

func TestEncodePayloadLayout(t *testing.T) {
	p := Payload{Window: 0x00000000000A0B0C, Mode: ModeExcludeFromCapture}
	buf := EncodePayload(p)

	if len(buf) != PayloadSize {
		t.Fatalf("encoded record is %d bytes, want %d", len(buf), PayloadSize)
	}

	want := []byte{
		0x0C, 0x0B, 0x0A, 0x00, 0x00, 0x00, 0x00, 0x00, // handle, little-endian
		0x11, 0x00, 0x00, 0x00, // mode
		0x00, 0x00, 0x00, 0x00, // reserved
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("encoded record = % x, want % x", buf, want)
	}
}

func TestDecodePayload(t *testing.T) {
	p := Payload{Window: 0x7FFE12345678, Mode: ModeNormal}

	got, err := DecodePayload(EncodePayload(p))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != p {
		t.Errorf("decoded %+v, want %+v", got, p)
	}
}

func TestDecodePayloadShortBuffer(t *testing.T) {
	if _, err := DecodePayload(make([]byte, PayloadSize-1)); err == nil {
		t.Error("expected error for short record")
	}
}

func TestDecodePayloadIgnoresReservedBytes(t *testing.T) {
	buf := EncodePayload(Payload{Window: 1, Mode: ModeNormal})
	buf[12] = 0xFF
	buf[15] = 0xFF

	got, err := DecodePayload(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Window != 1 || got.Mode != ModeNormal {
		t.Errorf("decoded %+v, want window 1 mode normal", got)
	}
}

func TestPayloadValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{"exclude", Payload{Window: 0x1234, Mode: ModeExcludeFromCapture}, false},
		{"normal", Payload{Window: 0x1234, Mode: ModeNormal}, false},
		{"no window", Payload{Window: 0, Mode: ModeNormal}, true},
		{"unknown mode", Payload{Window: 0x1234, Mode: Mode(0x7)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestArtifactNamesByBitness(t *testing.T) {
	if got := AgentFileName(64); got != Agent64DLL {
		t.Errorf("AgentFileName(64) = %q", got)
	}
	if got := AgentFileName(32); got != Agent32DLL {
		t.Errorf("AgentFileName(32) = %q", got)
	}
	if got := LauncherFileName(64); got != Launcher64EXE {
		t.Errorf("LauncherFileName(64) = %q", got)
	}
	if got := LauncherFileName(32); got != Launcher32EXE {
		t.Errorf("LauncherFileName(32) = %q", got)
	}
}

func TestAgentFileNamesIncludesLegacy(t *testing.T) {
	names := AgentFileNames()
	found := false
	for _, n := range names {
		if n == AgentLegacyDLL {
			found = true
		}
	}
	if !found {
		t.Errorf("AgentFileNames() = %v, missing legacy name", names)
	}
}

func TestArchProfileMatch(t *testing.T) {
	if !(ArchProfile{ControllerBits: 64, TargetBits: 64}).Match() {
		t.Error("64/64 should match")
	}
	if (ArchProfile{ControllerBits: 64, TargetBits: 32}).Match() {
		t.Error("64/32 should not match")
	}
}
