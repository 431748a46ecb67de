package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isAuthenticated() bool
	Login(ctx context.Context) error
	Scan(ctx context.Context) error
	Reset(ctx context.Context) error
	Device(ctx context.Context) error
	Status(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the gophprint client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not authenticated:
//	  - help           : show available commands
//	  - login          : enter email or phone number
//	  - scan           : capture and verify a fingerprint
//	  - reset          : start over
//	  - device         : re-check the scanner
//	  - status         : show flow and device state
//	  - exit | quit    : leave the program
//
//	Authenticated:
//	  - help           : show available commands
//	  - dashboard      : show the profile
//	  - logout         : destroy the session
//	  - exit | quit    : leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gp> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isAuthenticated() {
				printlnFn("Available commands: dashboard, logout, exit")
			} else {
				printlnFn("Available commands: login, scan, reset, device, status, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "scan":
			_ = a.Scan(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "device":
			_ = a.Device(ctx)

		case "status":
			_ = a.Status(ctx)

		case "dashboard":
			_ = a.Dashboard(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
