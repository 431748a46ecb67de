// Package cli provides the interactive gophprint login client.
//
// It wires configuration, session storage, the scanner and backend clients,
// the login flow and an interactive REPL. Typical flow: open the dashboard
// directly when a valid session is stored, otherwise probe the scanner,
// start a background device watcher, then prompt for an email or phone
// number followed by a fingerprint scan.
//
// Key features:
//   - Login: credential lookup followed by fingerprint verification
//   - Reset: start over at any point before authentication (Ctrl-C during a scan)
//   - Dashboard / Logout: protected view gated by the stored session
//   - Device / Status: scanner connectivity and flow state
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartDeviceWatcher, and runREPL for details.
package cli
