package service

import (
	"context"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/platform"
)

// Button FSM timing. A hold performs at most one action per press; a release
// shorter than the debounce window is treated as contact noise.
const (
	holdThreshold = 2000 * time.Millisecond
	debounceMin   = 50 * time.Millisecond
)

// Boot-time entry: the button must be held continuously for more than
// bootHoldMin somewhere inside the first bootSampleWindow after power-on to
// force the configuration portal.
const (
	bootSampleWindow = 500 * time.Millisecond
	bootHoldMin      = 100 * time.Millisecond
	joinTimeout      = 10 * time.Second
)

// ModeActions are the mode-entry side effects. The FSM decides, the actions
// act; keeping them apart makes the transition table testable.
type ModeActions interface {
	StartConfigPortal()
	StartManualUpdatePortal()
	EnterSleep()
	RequestLuckyScreen()
	Reboot(reason string)
}

// ModeService drives the foreground system mode from sampled button levels.
// It is owned by the control loop and must only be touched from there.
type ModeService struct {
	actions ModeActions
	log     *logger.Logger

	// Notify, when set, observes every committed transition.
	Notify func(from, to models.SystemMode)

	mode     models.SystemMode
	sleepYes bool

	pressed         bool
	pressedAt       time.Time
	holdActionTaken bool
}

func NewModeService(actions ModeActions, log *logger.Logger) *ModeService {
	return &ModeService{actions: actions, log: log, mode: models.ModeNormal}
}

func (s *ModeService) Current() models.SystemMode { return s.mode }

// SleepChoice reports the SleepConfirm selection; false is "No".
func (s *ModeService) SleepChoice() bool { return s.sleepYes }

// Start commits the boot-time mode and fires its entry action.
func (s *ModeService) Start(m models.SystemMode) {
	s.transition(m)
}

// Sample advances the FSM with the instantaneous button level. It is called
// once per control-loop tick.
func (s *ModeService) Sample(pressed bool, now time.Time) {
	switch {
	case pressed && !s.pressed: // press edge
		s.pressed = true
		s.pressedAt = now
		s.holdActionTaken = false

	case pressed: // still held
		if !s.holdActionTaken && now.Sub(s.pressedAt) > holdThreshold {
			s.holdActionTaken = true
			s.holdAction()
		}

	case s.pressed: // release edge
		held := now.Sub(s.pressedAt)
		s.pressed = false
		if held < debounceMin || s.holdActionTaken {
			return
		}
		s.releaseAction()
	}
}

func (s *ModeService) holdAction() {
	switch s.mode {
	case models.ModeNormal:
		s.sleepYes = false // default selection is "No"
		s.transition(models.ModeSleepConfirm)
	case models.ModeSleepConfirm:
		if s.sleepYes {
			s.actions.EnterSleep()
			return
		}
		s.transition(models.ModeConfigPortal)
	case models.ModeConfigPortal:
		s.transition(models.ModeManualUpdatePortal)
	case models.ModeManualUpdatePortal:
		s.transition(models.ModeRemoteUpdate)
	}
}

func (s *ModeService) releaseAction() {
	switch s.mode {
	case models.ModeSleepConfirm:
		s.sleepYes = !s.sleepYes
	case models.ModeConfigPortal, models.ModeManualUpdatePortal:
		s.actions.Reboot("portal exit")
	case models.ModeNormal:
		s.actions.RequestLuckyScreen()
	}
}

func (s *ModeService) transition(to models.SystemMode) {
	from := s.mode
	s.mode = to
	if s.log != nil {
		s.log.Infow("mode transition", "from", from.String(), "to", to.String())
	}
	if s.Notify != nil && from != to {
		s.Notify(from, to)
	}
	switch to {
	case models.ModeConfigPortal:
		s.actions.StartConfigPortal()
	case models.ModeManualUpdatePortal:
		s.actions.StartManualUpdatePortal()
	}
}

// DetectBootHold samples the button over the first half second after
// power-on and reports whether it was held continuously past bootHoldMin.
func DetectBootHold(button platform.Button, interval time.Duration) bool {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	deadline := time.Now().Add(bootSampleWindow)
	var heldSince time.Time
	for time.Now().Before(deadline) {
		if button.Pressed() {
			if heldSince.IsZero() {
				heldSince = time.Now()
			} else if time.Since(heldSince) > bootHoldMin {
				return true
			}
		} else {
			heldSince = time.Time{}
		}
		time.Sleep(interval)
	}
	return false
}

// BootMode decides the initial mode: an invalid config record or a
// held-at-boot button forces the portal, and so does a failed bounded
// network join.
func BootMode(ctx context.Context, cfg models.ConfigRecord, heldAtBoot bool, radio platform.Radio, log *logger.Logger) models.SystemMode {
	if !cfg.ValidSignature || heldAtBoot {
		return models.ModeConfigPortal
	}
	jctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	if err := radio.Join(jctx, cfg.SSID, cfg.Password); err != nil {
		if log != nil {
			log.Warnw("network join failed, falling back to portal", "err", err)
		}
		return models.ModeConfigPortal
	}
	return models.ModeNormal
}
