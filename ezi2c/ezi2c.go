// Package ezi2c presents memory buffers as readable windows to an
// external I2C bus master, in the style of an EZI2C peripheral: the
// master writes a base byte selecting a window, then issues a read to
// retrieve that window's content. Two windows are supported. Only one
// external reader is supported at a time.
package ezi2c

import (
	"fmt"
	"time"
)

// TargetEvent is a bus event seen by the target-mode port.
type TargetEvent uint8

const (
	// EventReceive signals data written by the master (base byte).
	EventReceive TargetEvent = iota
	// EventRequest signals a master read; the target must reply.
	EventRequest
	// EventFinish signals the end of a transaction.
	EventFinish
)

// Target is the target-mode I2C port the slave serves on. machine.I2C
// in target mode satisfies this through a thin adapter.
type Target interface {
	// Configure puts the port in target mode.
	Configure() error
	// Listen starts address matching on the given 7-bit address.
	Listen(addr uint16) error
	// WaitForEvent blocks until the next bus event, filling buf with
	// any received bytes and returning their count.
	WaitForEvent(buf []byte) (TargetEvent, int, error)
	// Reply answers an in-progress master read.
	Reply(buf []byte) error
}

// Reply for reads of an unregistered window.
var errReply = [2]uint8{0xff, 0xff}

// Single bus event forwarded to the dispatch goroutine.
type targetEvent struct {
	Event   TargetEvent
	HasBase bool
	Base    uint8
}

// Slave serves up to two read-only buffer windows on one target port.
// Buffers are registered with SetBuffer1/SetBuffer2 before Enable and
// refreshed with Update1/Update2 afterwards; an update replaces the
// whole window, so a master read never observes a torn record.
type Slave struct {
	target Target
	addr   uint16

	base1, base2 uint8
	buf1, buf2   []byte

	updates1 chan []byte
	updates2 chan []byte
	kick     chan struct{}
	events   chan targetEvent
}

// New returns a slave serving on the given port and 7-bit address.
func New(target Target, addr uint16) *Slave {
	return &Slave{
		target:   target,
		addr:     addr,
		updates1: make(chan []byte, 1),
		updates2: make(chan []byte, 1),
		kick:     make(chan struct{}, 1),
		events:   make(chan targetEvent),
	}
}

// Configure puts the underlying port in target mode.
func (s *Slave) Configure() error {
	if err := s.target.Configure(); err != nil {
		return fmt.Errorf("Failed to configure i2c bus: %w", err)
	}
	return nil
}

// SetBuffer1 registers the primary window at the given base byte with
// its initial content. Must be called before Enable.
func (s *Slave) SetBuffer1(base uint8, data []byte) {
	s.base1 = base
	s.buf1 = snapshot(data)
}

// SetBuffer2 registers the secondary window at the given base byte with
// its initial content. Must be called before Enable.
func (s *Slave) SetBuffer2(base uint8, data []byte) {
	s.base2 = base
	s.buf2 = snapshot(data)
}

// Update1 replaces the primary window content. The data is copied;
// stale pending updates are dropped in favour of the newest.
func (s *Slave) Update1(data []byte) {
	publish(s.updates1, data)
}

// Update2 replaces the secondary window content.
func (s *Slave) Update2(data []byte) {
	publish(s.updates2, data)
}

// Enable starts address matching and event servicing.
func (s *Slave) Enable() error {
	if err := s.target.Listen(s.addr); err != nil {
		return fmt.Errorf("Failed to listen on i2c bus: %w", err)
	}
	println("Listening on i2c address: ", s.addr)
	go s.dispatch()
	go s.wait()
	return nil
}

// HandleInterrupt is the slave's interrupt entry point, invoked by the
// bus-activity interrupt adapter. It only wakes the dispatch loop; all
// state lives there. Safe from interrupt context.
func (s *Slave) HandleInterrupt() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// dispatch owns the window buffers and the selected-window state.
func (s *Slave) dispatch() {
	buf1, buf2 := s.buf1, s.buf2
	selected := s.base1
	for {
		select {
		case b := <-s.updates1:
			buf1 = b
		case b := <-s.updates2:
			buf2 = b
		case <-s.kick:
			// Coalesced wake from the bus interrupt; state is
			// re-checked on the next event.
		case evt := <-s.events:
			switch evt.Event {
			case EventReceive:
				if evt.HasBase {
					selected = evt.Base
				}
			case EventRequest:
				switch selected {
				case s.base1:
					s.target.Reply(buf1)
				case s.base2:
					s.target.Reply(buf2)
				default:
					s.target.Reply(errReply[:])
				}
			case EventFinish:
				// No response needed
			}
		}
	}
}

// wait forwards bus events to the dispatch goroutine.
func (s *Slave) wait() {
	var buf [8]uint8
	for {
		evt, count, err := s.target.WaitForEvent(buf[:])
		if err != nil {
			println("Failed to wait for event: ", err.Error())
			time.Sleep(time.Second)
			continue
		}
		s.events <- targetEvent{
			Event:   evt,
			HasBase: count >= 1,
			Base:    buf[0],
		}
	}
}

func snapshot(data []byte) []byte {
	snap := make([]byte, len(data))
	copy(snap, data)
	return snap
}

// publish replaces any pending update with the newest snapshot.
func publish(ch chan []byte, data []byte) {
	snap := snapshot(data)
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
