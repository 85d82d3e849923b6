package machinelink

import (
	"io"

	"go.bug.st/serial"
)

// Porter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// PortOptions holds serial port configuration parameters.
type PortOptions struct {
	BaudRate int
	DataBits int
}

// DefaultPortOptions returns the mode the motion controller ships with.
func DefaultPortOptions() PortOptions {
	return PortOptions{
		BaudRate: 115200,
		DataBits: 8,
	}
}

// SerialMode converts the options to a serial.Mode.
func (o PortOptions) SerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: o.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}
