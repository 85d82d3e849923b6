package machinelink

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/sweepline-robotics/coverage.plan/internal/monitoring"
)

// MockPort implements Porter for dev mode and tests: reads come from an
// io.Pipe fed by a ticker, writes are captured in memory.
type MockPort struct {
	io.Reader

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
	closeR  func() error
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

// Written returns everything written to the mock port so far.
func (m *MockPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.closeR()
}

// NewMockLink creates a Link backed by a mock port that emits the given
// telemetry line every interval, simulating a connected controller.
func NewMockLink(telemetryLine []byte, interval time.Duration) *Link[*MockPort] {
	r, w := io.Pipe()
	mockPort := &MockPort{
		Reader: r,
		closeR: r.Close,
	}

	monitoring.Logf("machine link running against mock port")

	// generate telemetry periodically to simulate controller output
	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := w.Write(telemetryLine); err != nil {
				return
			}
		}
	}()

	return NewLink(mockPort)
}
