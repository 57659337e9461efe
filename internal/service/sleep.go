package service

import (
	"context"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/platform"
)

const radioOffTimeout = 5 * time.Second

// SleepService takes the device into its lowest-power state and back out
// through a full restart, so nothing ever resumes from half-initialized
// in-memory structures.
type SleepService struct {
	display platform.Display
	button  platform.Button
	radio   platform.Radio
	power   platform.Power
	events  EventLog
	log     *logger.Logger

	releasePoll time.Duration
}

func NewSleepService(display platform.Display, button platform.Button, radio platform.Radio, power platform.Power, events EventLog, log *logger.Logger) *SleepService {
	return &SleepService{
		display:     display,
		button:      button,
		radio:       radio,
		power:       power,
		events:      events,
		log:         log,
		releasePoll: 10 * time.Millisecond,
	}
}

// EnterSleep blanks the display, waits out the triggering press so it
// cannot double as the wake signal, kills the radio, and then issues
// bounded light sleeps until the button wakes the device. It ends in a
// restart and does not return on real hardware.
func (s *SleepService) EnterSleep() {
	if s.events != nil {
		s.events.Record(context.Background(), models.EventSleep, "entering sleep", nil)
	}
	s.display.Blank()

	for s.button.Pressed() {
		time.Sleep(s.releasePoll)
	}

	ctx, cancel := context.WithTimeout(context.Background(), radioOffTimeout)
	if err := s.radio.Disable(ctx); err != nil && s.log != nil {
		s.log.Warnw("radio disable failed", "err", err)
	}
	cancel()

	for !s.button.Pressed() {
		s.power.LightSleep(platform.MaxLightSleep)
	}

	s.power.Reboot("wake from sleep")
}
