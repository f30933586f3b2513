package main

import "testing"

func TestParseHandle(t *testing.T) {
	cases := []struct {
		in   string
		want uintptr
		ok   bool
	}{
		{"0x1A2B", 0x1A2B, true},
		{"0X1a2b", 0x1A2B, true},
		{"4660", 4660, true},
		{"0x0", 0, false},
		{"0", 0, false},
		{"firefox", 0, false},
		{"0xzz", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := parseHandle(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseHandle(%q) = (%#x, %v), want (%#x, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	if got := truncate("a very long window title here", 10); got != "a very ..." {
		t.Errorf("truncate cut = %q", got)
	}
	if len(truncate("a very long window title here", 10)) != 10 {
		t.Error("truncate exceeded limit")
	}
}

func TestApplyUnloadsByDefault(t *testing.T) {
	setupCommands()
	f := applyCmd.Flags().Lookup("auto-unload")
	if f == nil {
		t.Fatal("apply has no auto-unload flag")
	}
	if f.DefValue != "true" {
		t.Errorf("auto-unload default = %q, want %q", f.DefValue, "true")
	}
}

func TestTruncateMultibyte(t *testing.T) {
	// Titles are UTF-8 and must not be cut mid rune.
	title := "日本語のウィンドウタイトルです"
	got := truncate(title, 10)
	if got != "日本語のウィン..." {
		t.Errorf("truncate = %q", got)
	}
	if n := len([]rune(got)); n != 10 {
		t.Errorf("truncate produced %d runes, want 10", n)
	}
	if got := truncate("日本語", 10); got != "日本語" {
		t.Errorf("short multibyte title was cut: %q", got)
	}
}
