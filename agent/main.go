// The agent is built as a c-shared library and loaded into the process
// that owns the target window. While attaching it reads the pending
// request from the shared payload slot and applies the display affinity
// from inside the owner, which is the only place
// SetWindowDisplayAffinity may be called from.
//
// Build (per architecture):
//
//	GOOS=windows CGO_ENABLED=1 go build -buildmode=c-shared -o wshield_agent64.dll ./agent
//	GOOS=windows GOARCH=386 CGO_ENABLED=1 go build -buildmode=c-shared -o wshield_agent32.dll ./agent
package main

func main() {}
