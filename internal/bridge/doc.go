// Package bridge connects the daemon to the browser extension.
//
// Two transports are supported: Chrome native messaging over stdio
// (each message framed by a uint32 little-endian length prefix) and a
// localhost websocket. Both carry the same JSON envelope.
//
// The bridge mirrors the extension's tab list into an in-memory
// snapshot and implements tabs.Directory against it: reads are served
// from the mirror, mutations are sent to the extension as commands and
// await acknowledgement.
package bridge
