package platform

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// ExecRadio drives the wireless interface through NetworkManager's nmcli.
type ExecRadio struct{}

func (ExecRadio) Join(ctx context.Context, ssid, password string) error {
	if err := run(ctx, "nmcli", "radio", "wifi", "on"); err != nil {
		return err
	}
	args := []string{"dev", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	return run(ctx, "nmcli", args...)
}

func (ExecRadio) StartAccessPoint(ctx context.Context, ssid string) error {
	return run(ctx, "nmcli", "dev", "wifi", "hotspot", "ssid", ssid)
}

func (ExecRadio) Disable(ctx context.Context) error {
	return run(ctx, "nmcli", "radio", "wifi", "off")
}

func run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w (%s)", name, args, err, string(out))
	}
	return nil
}

// HostPower implements Power for a supervised daemon: light sleep is a
// bounded timer sleep, reboot is a process exit the supervisor restarts.
type HostPower struct {
	Exit func(code int)
}

// RebootExitCode tells the supervisor a restart was requested on purpose.
const RebootExitCode = 10

func (p HostPower) LightSleep(d time.Duration) {
	if d > MaxLightSleep {
		d = MaxLightSleep
	}
	time.Sleep(d)
}

func (p HostPower) Reboot(string) {
	p.Exit(RebootExitCode)
}
