//go:build rp2040 || rp2350

package main

import (
	"machine"

	"github.com/capworks/captouch/capsense"
	"github.com/capworks/captouch/ezi2c"
)

// Front end interrupt line (scan complete, active low)
const frontendIntPin = machine.GPIO22

// Target bus clock line; edges on it signal bus activity
const slaveSclPin = machine.GPIO27

// Wire the front end's scan-complete line to the engine's interrupt
// entry point. The adapter only forwards; the engine owns all state.
func wireScanCompleteInterrupt(engine *capsense.Engine) {
	frontendIntPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	frontendIntPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		engine.HandleInterrupt()
	})
}

// Wire target-bus activity to the slave's interrupt entry point. The
// rp2 pad interrupt observes the pin regardless of its i2c function
// mux, so clock edges on the target port wake the slave's dispatch
// loop. Pure forwarding, no state.
func wireBusActivityInterrupt(slave *ezi2c.Slave) {
	slaveSclPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		slave.HandleInterrupt()
	})
}
