// Package toolpipe is the root of a line-delimited JSON-RPC 2.0 tool
// protocol over stdio.
//
// A tool host (adapters/jsonrpc) answers the handshake, lists its registry
// and invokes tools. A relay (relay) presents the same protocol while
// forwarding every envelope to a host it starts as a child process. Both
// run under the loop in serving; adapters/mcp drives either from the
// calling side.
package toolpipe
