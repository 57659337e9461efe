package platform

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SimButton is a settable button for tests and desktop runs.
type SimButton struct {
	pressed atomic.Bool
}

func (b *SimButton) Pressed() bool        { return b.pressed.Load() }
func (b *SimButton) SetPressed(down bool) { b.pressed.Store(down) }

// SimDisplay records blank requests.
type SimDisplay struct {
	mu      sync.Mutex
	blanked int
}

func (d *SimDisplay) Blank() {
	d.mu.Lock()
	d.blanked++
	d.mu.Unlock()
}

func (d *SimDisplay) Blanked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blanked
}

// SimRadio pretends every operation succeeds.
type SimRadio struct {
	mu       sync.Mutex
	joined   bool
	apActive bool
	disabled bool
}

func (r *SimRadio) Join(_ context.Context, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = true
	r.disabled = false
	return nil
}

func (r *SimRadio) StartAccessPoint(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apActive = true
	return nil
}

func (r *SimRadio) Disable(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = false
	r.apActive = false
	r.disabled = true
	return nil
}

func (r *SimRadio) Disabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled
}

// SimPower records sleeps and reboots instead of acting on them.
type SimPower struct {
	mu       sync.Mutex
	sleeps   []time.Duration
	rebooted bool
	reason   string
}

func (p *SimPower) LightSleep(d time.Duration) {
	p.mu.Lock()
	p.sleeps = append(p.sleeps, d)
	p.mu.Unlock()
}

func (p *SimPower) Reboot(reason string) {
	p.mu.Lock()
	p.rebooted = true
	p.reason = reason
	p.mu.Unlock()
}

func (p *SimPower) Rebooted() (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rebooted, p.reason
}

func (p *SimPower) Sleeps() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.sleeps...)
}
