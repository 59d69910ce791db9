//go:build !unix

package actuator

import "os"

// defaultSignals stop Serve. Only os.Interrupt is portable.
func defaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
