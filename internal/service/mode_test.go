package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"statusboard/internal/models"
	"statusboard/internal/platform"
)

type fakeActions struct {
	configPortal int
	manualPortal int
	sleeps       int
	lucky        int
	reboots      []string
}

func (f *fakeActions) StartConfigPortal()       { f.configPortal++ }
func (f *fakeActions) StartManualUpdatePortal() { f.manualPortal++ }
func (f *fakeActions) EnterSleep()              { f.sleeps++ }
func (f *fakeActions) RequestLuckyScreen()      { f.lucky++ }
func (f *fakeActions) Reboot(reason string)     { f.reboots = append(f.reboots, reason) }

func newModeFSM(t *testing.T) (*ModeService, *fakeActions) {
	t.Helper()
	acts := &fakeActions{}
	return NewModeService(acts, nil), acts
}

// press simulates a full press-and-release of the given duration.
func press(s *ModeService, at time.Time, held time.Duration) time.Time {
	s.Sample(true, at)
	end := at.Add(held)
	s.Sample(true, end) // hold check fires here if past threshold
	s.Sample(false, end.Add(time.Millisecond))
	return end.Add(time.Millisecond)
}

func TestMode_HoldFromNormalOpensSleepConfirm(t *testing.T) {
	s, _ := newModeFSM(t)
	t0 := time.Now()

	press(s, t0, 2100*time.Millisecond)

	if s.Current() != models.ModeSleepConfirm {
		t.Fatalf("mode = %v, want SleepConfirm", s.Current())
	}
	if s.SleepChoice() {
		t.Fatalf("default selection must be No")
	}
}

// The recorded sequence from the design review: hold opens the confirm
// screen on No, a bounce is ignored, a real release toggles to Yes, and the
// next hold enters sleep rather than the portal.
func TestMode_SleepConfirmSequence(t *testing.T) {
	s, acts := newModeFSM(t)
	now := time.Now()

	now = press(s, now, 2100*time.Millisecond)
	if s.Current() != models.ModeSleepConfirm || s.SleepChoice() {
		t.Fatalf("after hold: mode=%v choice=%v", s.Current(), s.SleepChoice())
	}

	// Contact bounce: release after 20ms is noise.
	now = press(s, now.Add(time.Second), 20*time.Millisecond)
	if s.SleepChoice() {
		t.Fatalf("bounce must not toggle the selection")
	}

	// Real short press toggles to Yes.
	now = press(s, now.Add(time.Second), 200*time.Millisecond)
	if !s.SleepChoice() {
		t.Fatalf("press must toggle selection to Yes")
	}

	// Hold again: sleep, never the portal.
	press(s, now.Add(time.Second), 2100*time.Millisecond)
	if acts.sleeps != 1 {
		t.Fatalf("sleeps = %d, want 1", acts.sleeps)
	}
	if acts.configPortal != 0 {
		t.Fatalf("config portal must not start, got %d", acts.configPortal)
	}
}

func TestMode_SleepConfirmNoAdvancesToConfigPortal(t *testing.T) {
	s, acts := newModeFSM(t)
	now := time.Now()

	// Normal -> SleepConfirm(No), then hold again with No selected.
	now = press(s, now, 2100*time.Millisecond)
	press(s, now.Add(time.Second), 2100*time.Millisecond)

	if s.Current() != models.ModeConfigPortal {
		t.Fatalf("mode = %v, want ConfigPortal", s.Current())
	}
	if acts.configPortal != 1 {
		t.Fatalf("configPortal starts = %d, want 1", acts.configPortal)
	}
	if acts.sleeps != 0 {
		t.Fatalf("must not sleep with No selected")
	}
}

func TestMode_PortalChainAndExit(t *testing.T) {
	s, acts := newModeFSM(t)
	s.Start(models.ModeConfigPortal)
	now := time.Now()

	now = press(s, now, 2100*time.Millisecond)
	if s.Current() != models.ModeManualUpdatePortal || acts.manualPortal != 1 {
		t.Fatalf("mode = %v, manualPortal = %d", s.Current(), acts.manualPortal)
	}

	now = press(s, now.Add(time.Second), 2100*time.Millisecond)
	if s.Current() != models.ModeRemoteUpdate {
		t.Fatalf("mode = %v, want RemoteUpdate", s.Current())
	}

	// Short press in a portal reboots back into Normal.
	s2, acts2 := newModeFSM(t)
	s2.Start(models.ModeManualUpdatePortal)
	press(s2, time.Now(), 200*time.Millisecond)
	if len(acts2.reboots) != 1 {
		t.Fatalf("reboots = %v, want one", acts2.reboots)
	}
}

func TestMode_ShortPressInNormalRequestsLuckyScreen(t *testing.T) {
	s, acts := newModeFSM(t)

	press(s, time.Now(), 200*time.Millisecond)

	if s.Current() != models.ModeNormal {
		t.Fatalf("lucky screen must not change the mode")
	}
	if acts.lucky != 1 {
		t.Fatalf("lucky requests = %d, want 1", acts.lucky)
	}
}

func TestMode_OneHoldActionPerPress(t *testing.T) {
	s, _ := newModeFSM(t)
	t0 := time.Now()

	s.Sample(true, t0)
	s.Sample(true, t0.Add(2100*time.Millisecond))
	s.Sample(true, t0.Add(5*time.Second)) // still held well past a second threshold

	if s.Current() != models.ModeSleepConfirm {
		t.Fatalf("a single press must fire at most one hold action, mode = %v", s.Current())
	}
	// The release after a consumed hold is a no-op as well.
	s.Sample(false, t0.Add(6*time.Second))
	if s.SleepChoice() {
		t.Fatalf("release after a hold action must not toggle")
	}
}

type fakeRadio struct {
	joinErr error
	joins   int
	aps     int
}

func (f *fakeRadio) Join(context.Context, string, string) error {
	f.joins++
	return f.joinErr
}
func (f *fakeRadio) StartAccessPoint(context.Context, string) error {
	f.aps++
	return nil
}
func (f *fakeRadio) Disable(context.Context) error { return nil }

func TestBootMode(t *testing.T) {
	valid := models.ConfigRecord{SSID: "net", City: "Hanoi", ValidSignature: true}

	cases := []struct {
		name    string
		cfg     models.ConfigRecord
		held    bool
		joinErr error
		want    models.SystemMode
	}{
		{"valid config joins", valid, false, nil, models.ModeNormal},
		{"invalid signature", models.ConfigRecord{}, false, nil, models.ModeConfigPortal},
		{"held at boot overrides valid config", valid, true, nil, models.ModeConfigPortal},
		{"join failure falls back", valid, false, errors.New("no ap"), models.ModeConfigPortal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			radio := &fakeRadio{joinErr: tc.joinErr}
			got := BootMode(context.Background(), tc.cfg, tc.held, radio, nil)
			if got != tc.want {
				t.Fatalf("BootMode = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetectBootHold(t *testing.T) {
	held := &platform.SimButton{}
	held.SetPressed(true)
	if !DetectBootHold(held, time.Millisecond) {
		t.Fatalf("continuously held button must force the portal")
	}

	released := &platform.SimButton{}
	if DetectBootHold(released, 5*time.Millisecond) {
		t.Fatalf("released button must not force the portal")
	}
}
