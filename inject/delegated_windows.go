//go:build windows
// +build windows

package inject

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// LauncherWait bounds one delegated launcher run. It covers process
// startup plus the launcher's own remote thread wait.
const LauncherWait = 12 * time.Second

// delegatedBackend serves cross-bitness targets by spawning a launcher
// executable built for the target's pointer width.
type delegatedBackend struct {
	pid      uint32
	launcher string
}

// Evict is a no-op here. The launcher evicts stale agent copies on its
// own before loading, and Unload handles explicit removal.
func (b *delegatedBackend) Evict(names []string) error {
	return nil
}

func (b *delegatedBackend) Load(agentPath string) (uint32, error) {
	if err := b.run("delegate load", agentPath, false); err != nil {
		return 0, err
	}
	// The launcher only reports success or failure, not the module
	// handle. Any nonzero token marks a verified load.
	return 1, nil
}

func (b *delegatedBackend) Unload(agentPath string) error {
	return b.run("delegate unload", agentPath, true)
}

func (b *delegatedBackend) run(op, agentPath string, unload bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), LauncherWait)
	defer cancel()

	args := []string{strconv.FormatUint(uint64(b.pid), 10), agentPath}
	if unload {
		args = append(args, "unload")
	}

	err := exec.CommandContext(ctx, b.launcher, args...).Run()
	if ctx.Err() == context.DeadlineExceeded {
		return opErrf(op, KindTimeout, "launcher %s did not finish within %s", b.launcher, LauncherWait)
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return opErrf(op, KindRemoteLoad,
			"launcher reported failure for pid %d (exit code %d)", b.pid, exitErr.ExitCode())
	}
	if err != nil {
		return opErr(op, KindEnvironment, errors.Wrapf(err, "failed to start launcher %s", b.launcher))
	}
	return nil
}
