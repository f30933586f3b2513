// The launcher performs one agent load or unload in a target process
// and reports the outcome through its exit code. The controller spawns
// it when the target's bitness differs from its own, so this binary is
// built once per architecture.
//
// Usage: wshield_launcher <pid> <agent-dll-path> [unload]
//
// Exit code 0 means the operation succeeded, 1 means it did not.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
