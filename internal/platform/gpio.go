package platform

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOButton samples a physical button wired active-low with a pull-up.
type GPIOButton struct {
	pin gpio.PinIO
}

// OpenButton initializes the host and claims the named GPIO pin.
func OpenButton(name string) (*GPIOButton, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %q as input: %w", name, err)
	}
	return &GPIOButton{pin: pin}, nil
}

func (b *GPIOButton) Pressed() bool {
	return b.pin.Read() == gpio.Low
}
