// Package server implements the downstream WebSocket transport.
//
// Each accepted connection gets a freshly minted ClientID and a pair of
// read/write pumps. Inbound subscribe requests are validated here and
// forwarded to the Relay Supervisor; an invalid payload is answered with an
// error event on that connection only. Outbound pushes are enqueued
// non-blocking on a per-client buffer; a full buffer drops the payload
// rather than stalling the relay.
package server
