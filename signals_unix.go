//go:build unix

package actuator

import (
	"os"
	"syscall"
)

// defaultSignals stop Serve: Ctrl-C and the orchestrator's SIGTERM.
func defaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
