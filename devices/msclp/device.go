// Package msclp implements access to an MSCLP mutual-capacitance sensing
// front end. The chip scans its sensor matrix autonomously and exposes
// raw, baseline-subtracted and baseline counts per sensor through a
// register window; filtering and baseline tracking run on-chip.
package msclp

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
)

// Device implements access to an MSCLP front end.
type Device struct {
	bus     drivers.I2C
	address uint8
}

const (
	// MSCLP I2C addresses (ADDR pin low / high)
	DefaultAddress = 0x36
	AltAddress     = 0x37

	// MSCLP registers
	regChipID     = 0x00
	regCtrl       = 0x01
	regScanCtrl   = 0x02
	regStatus     = 0x03
	regTunerCmd   = 0x04
	regSensorBase = 0x10 // 6 bytes per sensor: raw, diff, bsln (MSB first)

	chipIDValue   = 0x4D
	ctrlSoftReset = 0x5A
	ctrlEnable    = 0x01
	scanStart     = 0x01
	statusBusy    = 0x01
	tunerSync     = 0x01

	sensorStride = 6
	maxSensors   = 16 // register window fits 16 sensor slots
)

// New initializes a new device attached to the given I2C bus. The bus
// must already be configured.
func New(bus drivers.I2C, address uint8) *Device {
	return &Device{
		bus:     bus,
		address: address,
	}
}

// Reset puts the chip through a soft reset and verifies its identity.
func (dev *Device) Reset() error {
	if err := dev.writeRegister(regCtrl, ctrlSoftReset); err != nil {
		return fmt.Errorf("writeRegister failed: %w", err)
	}
	time.Sleep(1 * time.Millisecond)
	id, err := dev.readRegister(regChipID)
	if err != nil {
		return fmt.Errorf("readRegister failed: %w", err)
	}
	if id != chipIDValue {
		return fmt.Errorf("unexpected chip id: 0x%02X", id)
	}
	return nil
}

// Enable starts the sensing block.
func (dev *Device) Enable() error {
	if err := dev.writeRegister(regCtrl, ctrlEnable); err != nil {
		return fmt.Errorf("writeRegister failed: %w", err)
	}
	return nil
}

// TriggerScan starts a scan of all sensor slots. The scan runs on-chip;
// poll Busy for completion.
func (dev *Device) TriggerScan() error {
	if err := dev.writeRegister(regScanCtrl, scanStart); err != nil {
		return fmt.Errorf("writeRegister failed: %w", err)
	}
	return nil
}

// Busy reports whether a scan is still in progress.
func (dev *Device) Busy() (bool, error) {
	status, err := dev.readRegister(regStatus)
	if err != nil {
		return false, fmt.Errorf("readRegister failed: %w", err)
	}
	return status&statusBusy != 0, nil
}

// ReadSensor returns the raw, diff and baseline counts of sensor i as
// produced by the last completed scan.
func (dev *Device) ReadSensor(i int) (raw, diff, bsln uint16, err error) {
	if i < 0 || i >= maxSensors {
		return 0, 0, 0, fmt.Errorf("sensor index out of range: %d", i)
	}
	var buf [sensorStride]uint8
	reg := uint8(regSensorBase + i*sensorStride)
	if err := dev.bus.ReadRegister(dev.address, reg, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("ReadRegister failed: %w", err)
	}
	raw = (uint16(buf[0]) << 8) | uint16(buf[1]) // MSB first
	diff = (uint16(buf[2]) << 8) | uint16(buf[3])
	bsln = (uint16(buf[4]) << 8) | uint16(buf[5])
	return raw, diff, bsln, nil
}

// SyncTuner runs one round of the chip's tuner synchronization command.
func (dev *Device) SyncTuner() error {
	if err := dev.writeRegister(regTunerCmd, tunerSync); err != nil {
		return fmt.Errorf("writeRegister failed: %w", err)
	}
	return nil
}

// Read an 8-bit register
func (dev *Device) readRegister(reg uint8) (uint8, error) {
	var r [1]uint8
	if err := dev.bus.ReadRegister(dev.address, reg, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// Write an 8-bit register
func (dev *Device) writeRegister(reg uint8, value uint8) error {
	w := [1]uint8{value}
	if err := dev.bus.WriteRegister(dev.address, reg, w[:]); err != nil {
		return err
	}
	return nil
}
