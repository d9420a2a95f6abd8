// Package commands defines the ratchetctl CLI and wires the crypto engine
// and configuration that its subcommands share.
//
// Commands
//
//   - identity   Create an identity and print its bundle fingerprint
//   - handshake  Run X3DH plus the first encrypt/decrypt between two parties
//   - simulate   Run the ping-pong, out-of-order, and DH-rotation scenarios
//
// # Implementation
//
// The root command builds a process-wide CryptoEngine and an Options value
// (optionally overridden from a --config TOML file) before any subcommand
// runs, the way ciphera/cmd/ciphera/commands.Execute builds its appCtx.
// The handshake and simulate commands move their two in-process parties'
// messages over an internal/chanwire.Link rather than a socket, since the
// demonstration CLI is explicitly scoped to an in-process transport; the
// identity command creates a single identity and sends nothing.
package commands
