//go:build windows

package main

import (
	"os"
)

// terminationSignals holds the signals that request a graceful shutdown.
// Windows only delivers os.Interrupt (Ctrl+C).
var terminationSignals = []os.Signal{os.Interrupt}
