package msclp

import (
	"errors"
	"testing"
)

// fakeBus implements drivers.I2C over a register map.
type fakeBus struct {
	regs    map[uint8][]byte
	writes  []regWrite
	readErr error
}

type regWrite struct {
	reg   uint8
	value uint8
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		regs: map[uint8][]byte{
			regChipID: {chipIDValue},
			regStatus: {0x00},
		},
	}
}

func (f *fakeBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	data, ok := f.regs[r]
	if !ok {
		return errors.New("no such register")
	}
	copy(buf, data)
	return nil
}

func (f *fakeBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	for _, b := range buf {
		f.writes = append(f.writes, regWrite{reg: r, value: b})
	}
	return nil
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error { return nil }

func TestReset_VerifiesChipID(t *testing.T) {
	bus := newFakeBus()
	dev := New(bus, DefaultAddress)

	if err := dev.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if len(bus.writes) == 0 || bus.writes[0] != (regWrite{reg: regCtrl, value: ctrlSoftReset}) {
		t.Fatalf("soft reset not written: %+v", bus.writes)
	}

	bus.regs[regChipID] = []byte{0x00}
	if err := dev.Reset(); err == nil {
		t.Fatal("expected chip id mismatch error")
	}
}

func TestBusy_StatusBit(t *testing.T) {
	bus := newFakeBus()
	dev := New(bus, DefaultAddress)

	busy, err := dev.Busy()
	if err != nil {
		t.Fatalf("Busy failed: %v", err)
	}
	if busy {
		t.Fatal("expected idle")
	}

	bus.regs[regStatus] = []byte{statusBusy}
	busy, err = dev.Busy()
	if err != nil {
		t.Fatalf("Busy failed: %v", err)
	}
	if !busy {
		t.Fatal("expected busy")
	}
}

func TestReadSensor_Decoding(t *testing.T) {
	bus := newFakeBus()
	// Sensor 1 window: raw=0x0102 diff=0x0304 bsln=0x0506, MSB first.
	bus.regs[regSensorBase+1*sensorStride] = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	dev := New(bus, DefaultAddress)

	raw, diff, bsln, err := dev.ReadSensor(1)
	if err != nil {
		t.Fatalf("ReadSensor failed: %v", err)
	}
	if raw != 0x0102 || diff != 0x0304 || bsln != 0x0506 {
		t.Fatalf("got raw=0x%04X diff=0x%04X bsln=0x%04X", raw, diff, bsln)
	}

	if _, _, _, err := dev.ReadSensor(maxSensors); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, _, _, err := dev.ReadSensor(-1); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestTriggerScanAndSyncTuner_Commands(t *testing.T) {
	bus := newFakeBus()
	dev := New(bus, DefaultAddress)

	if err := dev.TriggerScan(); err != nil {
		t.Fatalf("TriggerScan failed: %v", err)
	}
	if err := dev.SyncTuner(); err != nil {
		t.Fatalf("SyncTuner failed: %v", err)
	}

	want := []regWrite{
		{reg: regScanCtrl, value: scanStart},
		{reg: regTunerCmd, value: tunerSync},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("got %d writes, want %d", len(bus.writes), len(want))
	}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Errorf("write %d: got %+v, want %+v", i, bus.writes[i], want[i])
		}
	}
}
