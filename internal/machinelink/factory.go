package machinelink

import (
	"go.bug.st/serial"
)

// NewSerialLink creates a Link backed by a real serial port at the given
// path using the provided options.
func NewSerialLink(path string, opts PortOptions) (*Link[serial.Port], error) {
	port, err := serial.Open(path, opts.SerialMode())
	if err != nil {
		return nil, err
	}

	return NewLink[serial.Port](port), nil
}
