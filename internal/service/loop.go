package service

import (
	"context"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/platform"
	"statusboard/internal/repository"
)

const (
	updateCheckTimeout = 10 * time.Second
	portalActionBudget = 30 * time.Second
)

// Loop is the device's single control flow: one tick runs to completion
// before the next begins. Everything long-running inside a tick is either
// a bounded blocking call or a time-boxed burst.
type Loop struct {
	mode    *ModeService
	engine  NetEngine
	updater Updater
	button  platform.Button
	radio   platform.Radio
	cfg     repository.ConfigRepo
	events  EventLog
	log     *logger.Logger

	checkInterval time.Duration
	lastCheck     time.Time
}

func NewLoop(mode *ModeService, engine NetEngine, updater Updater, button platform.Button, radio platform.Radio, cfg repository.ConfigRepo, events EventLog, log *logger.Logger, checkInterval time.Duration) *Loop {
	return &Loop{
		mode:          mode,
		engine:        engine,
		updater:       updater,
		button:        button,
		radio:         radio,
		cfg:           cfg,
		events:        events,
		log:           log,
		checkInterval: checkInterval,
	}
}

// Boot runs the power-on entry logic and commits the initial mode.
func (l *Loop) Boot(ctx context.Context) models.SystemMode {
	held := DetectBootHold(l.button, 0)
	cfg := l.cfg.Load()
	m := BootMode(ctx, cfg, held, l.radio, l.log)
	l.events.Record(ctx, models.EventBoot, "booting into "+m.String(),
		map[string]any{"config_valid": cfg.ValidSignature, "held_at_boot": held})
	l.mode.Start(m)
	l.lastCheck = time.Now()
	return m
}

// Run ticks until the context is canceled.
func (l *Loop) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.step(now)
		}
	}
}

func (l *Loop) step(now time.Time) {
	l.mode.Sample(l.button.Pressed(), now)

	switch l.mode.Current() {
	case models.ModeNormal:
		l.engine.Tick(now)
		l.maybeCheckForUpdate(now)
		if etag, ok := l.updater.PendingTarget(); ok && l.engine.Idle() {
			// Does not return on hardware: the update ends in a reboot.
			l.updater.PerformUpdate(etag)
		}
	case models.ModeRemoteUpdate:
		l.runRemoteUpdate()
	}
}

func (l *Loop) maybeCheckForUpdate(now time.Time) {
	if now.Sub(l.lastCheck) < l.checkInterval {
		return
	}
	l.lastCheck = now
	ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
	defer cancel()
	if err := l.updater.CheckForUpdate(ctx); err != nil && l.log != nil {
		l.log.Warnw("update check failed", "err", err)
	}
}

// runRemoteUpdate services the user-requested update mode: re-check the
// remote tag, then download whatever is current. Either path ends in a
// reboot, so this runs at most once.
func (l *Loop) runRemoteUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
	if err := l.updater.CheckForUpdate(ctx); err != nil && l.log != nil {
		l.log.Warnw("manual update check failed", "err", err)
	}
	cancel()

	etag, ok := l.updater.PendingTarget()
	if !ok {
		etag = l.cfg.Load().FirmwareETag
	}
	l.updater.PerformUpdate(etag)
}

// modeActions wires the FSM's entry side effects to the platform.
type modeActions struct {
	radio   platform.Radio
	power   platform.Power
	sleeper Sleeper
	status  Status
	apSSID  string
	log     *logger.Logger
}

func (a *modeActions) StartConfigPortal() {
	ctx, cancel := context.WithTimeout(context.Background(), portalActionBudget)
	defer cancel()
	if err := a.radio.StartAccessPoint(ctx, a.apSSID); err != nil && a.log != nil {
		a.log.Errorw("access point start failed", "err", err)
	}
}

// The manual-update portal reuses the access point and web endpoint brought
// up for the config portal; entry needs no further hardware action.
func (a *modeActions) StartManualUpdatePortal() {}

func (a *modeActions) EnterSleep() { a.sleeper.EnterSleep() }

func (a *modeActions) RequestLuckyScreen() { a.status.RequestLucky() }

func (a *modeActions) Reboot(reason string) { a.power.Reboot(reason) }
