package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"winshield/shared"
)

// backend is the injection surface execute drives. The Windows
// implementation wraps the shared injection core.
type backend interface {
	Open(pid uint32) error
	Close()
	Evict(names []string) error
	Load(agentPath string) error
}

// execute performs one load or unload and returns the process exit
// code. Unload always exits 0: a target without the agent, or one that
// already exited, still counts as unloaded.
func execute(req launchRequest, b backend, stderr io.Writer) int {
	if err := b.Open(req.pid); err != nil {
		fmt.Fprintln(stderr, err)
		if req.unload {
			return 0
		}
		return 1
	}
	defer b.Close()

	if err := b.Evict(evictNames(req.agent)); err != nil {
		fmt.Fprintln(stderr, err)
		if !req.unload {
			return 1
		}
	}
	if req.unload {
		return 0
	}

	if err := b.Load(req.agent); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// evictNames is every file name the agent may be resident under,
// including the one actually passed on the command line.
func evictNames(agentPath string) []string {
	names := shared.AgentFileNames()
	base := filepath.Base(agentPath)
	for _, n := range names {
		if strings.EqualFold(n, base) {
			return names
		}
	}
	return append(names, base)
}
