//go:build windows
// +build windows

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"

	"winshield/inject"
)

// winBackend drives the target through the same remote thread core the
// controller uses.
type winBackend struct {
	pid  uint32
	proc windows.Handle
}

func (b *winBackend) Open(pid uint32) error {
	proc, err := inject.OpenTargetProcess(pid)
	if err != nil {
		return err
	}
	b.pid = pid
	b.proc = proc
	return nil
}

func (b *winBackend) Close() {
	windows.CloseHandle(b.proc)
}

func (b *winBackend) Evict(names []string) error {
	_, err := inject.EvictModules(b.proc, b.pid, names)
	return err
}

func (b *winBackend) Load(agentPath string) error {
	_, err := inject.RemoteLoad(b.proc, agentPath, inject.DefaultLoadWait)
	return err
}

func run(args []string) int {
	req, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return execute(req, &winBackend{}, os.Stderr)
}
