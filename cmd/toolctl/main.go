// Command toolctl starts a tool host and lists or calls its tools.
//
//	toolctl [flags] list -- command [args...]
//	toolctl [flags] call <tool> [json-arguments] -- command [args...]
package main

import (
	"context"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, commandTransport))
}

// commandTransport runs the host as a child process.
func commandTransport(inv invocation) mcp.Transport {
	cmd := exec.Command(inv.Child.Command, inv.Child.Args...)
	cmd.Env = os.Environ()
	for k, v := range inv.Child.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if inv.Child.Dir != nil {
		cmd.Dir = *inv.Child.Dir
	}
	cmd.Stderr = os.Stderr

	return &mcp.CommandTransport{Command: cmd}
}
