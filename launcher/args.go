package main

import (
	"fmt"
	"strconv"
)

type launchRequest struct {
	pid    uint32
	agent  string
	unload bool
}

func parseArgs(args []string) (launchRequest, error) {
	if len(args) < 2 || len(args) > 3 {
		return launchRequest{}, fmt.Errorf("usage: wshield_launcher <pid> <agent-dll-path> [unload]")
	}

	pid, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || pid == 0 {
		return launchRequest{}, fmt.Errorf("invalid pid %q", args[0])
	}

	req := launchRequest{pid: uint32(pid), agent: args[1]}
	if len(args) == 3 {
		if args[2] != "unload" {
			return launchRequest{}, fmt.Errorf("unknown argument %q, only 'unload' is accepted", args[2])
		}
		req.unload = true
	}
	return req, nil
}
