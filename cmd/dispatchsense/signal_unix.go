//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals holds the signals that request a graceful shutdown.
// Process managers (systemd, kubernetes) send SIGTERM.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
