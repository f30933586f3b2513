// Package winutil enumerates and manipulates top-level windows.
package winutil

import "strings"

// WindowInfo describes one top-level window.
type WindowInfo struct {
	Handle   uintptr
	Title    string
	Process  string
	PID      uint32
	Excluded bool
	TopMost  bool
}

// FilterByTitle returns the windows whose title contains substr,
// ignoring case.
func FilterByTitle(windows []WindowInfo, substr string) []WindowInfo {
	needle := strings.ToLower(substr)
	var out []WindowInfo
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			out = append(out, w)
		}
	}
	return out
}
