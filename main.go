//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"
	"time"

	"github.com/capworks/captouch/capsense"
	"github.com/capworks/captouch/controller"
	"github.com/capworks/captouch/devices/msclp"
	"github.com/capworks/captouch/ezi2c"
	"tinygo.org/x/drivers/ws2812"
)

var (
	// Color scheme
	colorBoot           = color.RGBA{R: 255, G: 165, B: 0}
	colorI2cConfigError = color.RGBA{R: 96, G: 0, B: 96}
	colorNoFrontend     = color.RGBA{R: 245, G: 0, B: 0}
	colorRunning        = color.RGBA{R: 0, G: 96, B: 0}
)

const (
	// 7-bit address the slave port answers on
	slaveI2cAddress = uint16(0x34)

	uartBaudRate = 115200
)

func main() {
	// Configure neopixel
	machine.NEOPIXEL.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := ws2812.New(machine.NEOPIXEL)
	led.WriteColors([]color.RGBA{colorBoot})

	// Configure report UART
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: uartBaudRate})

	// Find the sensing front end on i2c0
	dev := probeFrontend(led)
	engine := capsense.New(dev)

	// Expose buffers on i2c1 (target mode)
	slave := ezi2c.New(&machineTarget{bus: machine.I2C1}, slaveI2cAddress)

	ctrl, err := controller.New(controller.Config{
		Engine:              engine,
		Exposer:             slave,
		Report:              uart,
		WireEngineInterrupt: func() { wireScanCompleteInterrupt(engine) },
		WireBusInterrupt:    func() { wireBusActivityInterrupt(slave) },
	})
	if err != nil {
		println("controller setup failed: ", err.Error())
		led.WriteColors([]color.RGBA{colorI2cConfigError})
		select {}
	}

	ctrl.Setup()

	led.WriteColors([]color.RGBA{colorRunning})
	ctrl.Run()
}

// Try to detect the MSCLP front end. A missing front end is not fatal:
// engine init fails and the system continues degraded, so the probe
// gives up after a few rounds instead of retrying forever.
func probeFrontend(led ws2812.Device) *msclp.Device {
	for attempt := 0; attempt < 3; attempt++ {
		println("Configure i2c0...")
		if err := machine.I2C0.Configure(machine.I2CConfig{}); err != nil {
			led.WriteColors([]color.RGBA{colorI2cConfigError})
			time.Sleep(time.Second)
			continue
		}
		println("Probing MSCLP front end")
		for _, i2cAddress := range []uint8{msclp.DefaultAddress, msclp.AltAddress} {
			dev := msclp.New(machine.I2C0, i2cAddress)
			if err := dev.Reset(); err == nil {
				println("Found MSCLP at address: ", i2cAddress)
				return dev
			}
		}
		led.WriteColors([]color.RGBA{colorNoFrontend})
		time.Sleep(time.Second)
	}
	println("No MSCLP front end found, continuing degraded")
	return msclp.New(machine.I2C0, msclp.DefaultAddress)
}

// machineTarget adapts machine.I2C target mode to the ezi2c.Target
// interface.
type machineTarget struct {
	bus *machine.I2C
}

func (t *machineTarget) Configure() error {
	return t.bus.Configure(machine.I2CConfig{
		Mode: machine.I2CModeTarget,
	})
}

func (t *machineTarget) Listen(addr uint16) error {
	return t.bus.Listen(addr)
}

func (t *machineTarget) WaitForEvent(buf []byte) (ezi2c.TargetEvent, int, error) {
	evt, count, err := t.bus.WaitForEvent(buf)
	switch evt {
	case machine.I2CReceive:
		return ezi2c.EventReceive, count, err
	case machine.I2CRequest:
		return ezi2c.EventRequest, count, err
	default:
		return ezi2c.EventFinish, count, err
	}
}

func (t *machineTarget) Reply(buf []byte) error {
	return t.bus.Reply(buf)
}
