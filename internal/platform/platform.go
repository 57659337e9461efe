// Package platform abstracts the hardware surface of the display board:
// the single push button, the wireless radio, power control and the
// firmware image target. Every interface has a simulated implementation so
// the control core is testable off-device.
package platform

import (
	"context"
	"time"
)

// Button reports the instantaneous level of the single front button.
type Button interface {
	Pressed() bool
}

// Display is the external rendering layer; the core only ever blanks it.
type Display interface {
	Blank()
}

// Radio controls the wireless interface.
type Radio interface {
	Join(ctx context.Context, ssid, password string) error
	StartAccessPoint(ctx context.Context, ssid string) error
	Disable(ctx context.Context) error
}

// Power owns sleep and restart. Reboot does not return on real hardware;
// the daemon implementation exits and relies on the supervisor to restart.
type Power interface {
	LightSleep(d time.Duration)
	Reboot(reason string)
}

// MaxLightSleep is the longest single sleep the platform permits; longer
// sleeps are issued as repeated bounded requests.
const MaxLightSleep = 30 * time.Second
