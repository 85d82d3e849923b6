package machinelink

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweepline-robotics/coverage.plan/internal/geom"
	"github.com/sweepline-robotics/coverage.plan/internal/planner"
)

// scriptedPort implements Porter over in-memory buffers.
type scriptedPort struct {
	mu     sync.Mutex
	read   *bytes.Reader
	write  bytes.Buffer
	closed bool
}

func newScriptedPort(telemetry string) *scriptedPort {
	return &scriptedPort{read: bytes.NewReader([]byte(telemetry))}
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	return p.read.Read(b)
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write.Write(b)
}

func (p *scriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *scriptedPort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write.String()
}

func TestSendCommandAppendsNewline(t *testing.T) {
	port := newScriptedPort("")
	link := NewLink(port)

	if err := link.SendCommand("HELLO"); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if err := link.SendCommand("GO\n"); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	if got, want := port.written(), "HELLO\nGO\n"; got != want {
		t.Errorf("port received %q, want %q", got, want)
	}
}

func TestSendPath(t *testing.T) {
	port := newScriptedPort("")
	link := NewLink(port)

	path := planner.Path{
		{X: 0, Y: 0}, {X: 10, Y: 0},
		{X: 10, Y: 5}, {X: 0, Y: 5},
	}
	if err := link.SendPath(path); err != nil {
		t.Fatalf("SendPath failed: %v", err)
	}

	want := "CLEAR\nW,0,0\nW,10,0\nW,10,5\nW,0,5\nGO\n"
	if got := port.written(); got != want {
		t.Errorf("port received %q, want %q", got, want)
	}
}

func TestSendPathRejectsEmpty(t *testing.T) {
	link := NewLink(newScriptedPort(""))
	if err := link.SendPath(nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSendPathFractionalCoordinates(t *testing.T) {
	port := newScriptedPort("")
	link := NewLink(port)

	if err := link.SendPath(planner.Path{{X: 0.25, Y: 1.5}}); err != nil {
		t.Fatalf("SendPath failed: %v", err)
	}
	if !strings.Contains(port.written(), "W,0.25,1.5\n") {
		t.Errorf("waypoint line missing from %q", port.written())
	}
}

func TestInitializeHandshake(t *testing.T) {
	port := newScriptedPort("")
	link := NewLink(port)

	if err := link.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	got := port.written()
	for _, want := range []string{"HELLO\n", "CLEAR\n", "UNITS,m\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("handshake missing %q in %q", want, got)
		}
	}
}

func TestMonitorFansOutTelemetry(t *testing.T) {
	port := newScriptedPort("POS,1,2\nPOS,3,4\n")
	link := NewLink(port)

	id, ch := link.Subscribe()
	defer link.Unsubscribe(id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- link.Monitor(ctx) }()

	var lines []string
	for line := range ch {
		lines = append(lines, line)
		if len(lines) == 2 {
			break
		}
	}

	if len(lines) != 2 || lines[0] != "POS,1,2" || lines[1] != "POS,3,4" {
		t.Errorf("subscriber received %v", lines)
	}

	// Monitor returns nil once the port hits EOF.
	if err := <-done; err != nil {
		t.Errorf("Monitor returned %v, want nil", err)
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	// A pipe-backed mock never hits EOF, so cancellation is the only exit.
	link := NewMockLink([]byte("POS,0,0\n"), 10*time.Millisecond)
	defer link.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not stop after context cancellation")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	link := NewLink(newScriptedPort(""))

	id, ch := link.Subscribe()
	link.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after Unsubscribe")
	}

	// Unsubscribing twice is a no-op.
	link.Unsubscribe(id)
}

func TestCloseClosesSubscribers(t *testing.T) {
	port := newScriptedPort("")
	link := NewLink(port)

	_, ch := link.Subscribe()
	if err := link.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel to be closed after Close")
	}
	if !port.closed {
		t.Error("expected underlying port to be closed")
	}
}

func TestMockPortCapturesWrites(t *testing.T) {
	link := NewMockLink([]byte("OK\n"), time.Hour)
	defer link.Close()

	path := planner.Path{geom.Point{X: 1, Y: 2}}
	if err := link.SendPath(path); err != nil {
		t.Fatalf("SendPath failed: %v", err)
	}
}
