// Package machinelink provides the uplink to the coverage machine's motion
// controller over a serial line. Multiple clients can subscribe to telemetry
// lines from the controller while commands and waypoint streams are written
// through a single shared port.
package machinelink

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/sweepline-robotics/coverage.plan/internal/planner"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// Link multiplexes a single serial connection to the machine: telemetry
// lines fan out to subscribers, writes are serialised behind a mutex.
type Link[T Porter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// LinkInterface defines the interface for the Link type.
type LinkInterface interface {
	// Subscribe creates a new channel for receiving telemetry lines from
	// the machine. The channel ID identifies the channel when
	// unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes a single command line to the port.
	SendCommand(string) error
	// SendPath streams a planned path to the controller as waypoint lines
	// followed by a GO command.
	SendPath(planner.Path) error
	// Monitor reads telemetry lines from the port and fans them out to
	// subscribers until the context is cancelled or the port closes.
	Monitor(context.Context) error
	// Close closes all subscriber channels and the port.
	Close() error

	Initialize() error
}

// NewLink creates a Link over an open port.
func NewLink[T Porter](port T) *Link[T] {
	return &Link[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

func (l *Link[T]) Subscribe() (string, chan string) {
	id := uuid.New().String()
	// Buffered so short telemetry bursts survive a slow subscriber; the
	// fan-out drops lines only once the buffer is full.
	ch := make(chan string, 16)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// Initialize performs the startup handshake: identify ourselves and clear
// any waypoint buffer left over from a previous session.
func (l *Link[T]) Initialize() error {
	for _, command := range []string{
		"HELLO", // identify and request controller version telemetry
		"CLEAR", // drop any buffered waypoints
		"UNITS,m",
	} {
		if err := l.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send init command %q: %w", command, err)
		}
	}
	return nil
}

// SendCommand writes one command line to the port.
func (l *Link[T]) SendCommand(command string) error {
	l.commandMu.Lock()
	defer l.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n" // ensure command ends with a newline
	}
	n, err := l.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// SendPath streams the path to the controller: a CLEAR, one W,<x>,<y> line
// per waypoint in travel order, then GO.
func (l *Link[T]) SendPath(path planner.Path) error {
	if len(path) == 0 {
		return fmt.Errorf("refusing to dispatch an empty path")
	}

	if err := l.SendCommand("CLEAR"); err != nil {
		return err
	}
	for i, p := range path {
		line := "W," + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
		if err := l.SendCommand(line); err != nil {
			return fmt.Errorf("failed to send waypoint %d: %w", i, err)
		}
	}
	return l.SendCommand("GO")
}

// Monitor reads telemetry lines from the port and sends them to subscribers.
func (l *Link[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(l.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// can await both lines and context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// if the channel is closed, we're done reading from the port
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}

			l.closingMu.Lock()
			if l.closing {
				l.closingMu.Unlock()
				return nil
			}
			l.closingMu.Unlock()

			l.subscriberMu.Lock()
			for _, ch := range l.subscribers {
				select {
				case ch <- line:
				default:
					// skip a full/blocking channel so the fan-out never stalls
				}
			}
			l.subscriberMu.Unlock()
		}
	}
}

func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	return l.port.Close()
}
