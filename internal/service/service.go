package service

import (
	"context"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/platform"
	"statusboard/internal/repository"
	"statusboard/internal/transport"
)

// Mode is the button-driven foreground mode state machine.
type Mode interface {
	Sample(pressed bool, now time.Time)
	Current() models.SystemMode
	SleepChoice() bool
}

// NetEngine advances the cooperative fetch tasks one slice per tick.
type NetEngine interface {
	Tick(now time.Time)
	Idle() bool
	Reset()
	Weather() models.WeatherSnapshot
	Forecast() [models.ForecastDays]models.ForecastEntry
}

// Updater checks for and applies remote firmware images.
type Updater interface {
	CheckForUpdate(ctx context.Context) error
	PendingTarget() (string, bool)
	PerformUpdate(targetETag string)
}

// Sleeper enters the low-power sleep path; it ends in a restart.
type Sleeper interface {
	EnterSleep()
}

// Status is the read surface for the display layer and the portal.
type Status interface {
	Get() models.DeviceStatus
	SetLastError(msg string)
	RequestLucky()
}

// UserConfig exposes the persisted user configuration with the portal's
// save-validation contract.
type UserConfig interface {
	Get() models.ConfigRecord
	Save(models.ConfigRecord) error
}

// EventLog exposes the append-only device log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
	Record(ctx context.Context, typ, description string, meta any)
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string
}

// Options are the daemon-level tunables read from config.yml.
type Options struct {
	WeatherHost         string
	DefaultCity         string
	APSSID              string
	UpdateCheckInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.WeatherHost == "" {
		o.WeatherHost = "wttr.in"
	}
	if o.DefaultCity == "" {
		o.DefaultCity = "Hanoi"
	}
	if o.APSSID == "" {
		o.APSSID = "statusboard-setup"
	}
	if o.UpdateCheckInterval <= 0 {
		o.UpdateCheckInterval = 6 * time.Hour
	}
}

// Deps bundles everything the services are wired from.
type Deps struct {
	Repos   *repository.Repository
	Button  platform.Button
	Display platform.Display
	Radio   platform.Radio
	Power   platform.Power
	Image   platform.ImageTarget
	Dialer  transport.Dialer
	Log     *logger.Logger
	Opts    Options
}

// Service aggregates all sub-services.
type Service struct {
	Mode    Mode
	Engine  NetEngine
	Updater Updater
	Sleeper Sleeper
	Status  Status
	Config  UserConfig
	Events  EventLog
	Loop    *Loop
}

// NewService wires the repository and platform layers into the control core.
func NewService(d Deps) *Service {
	d.Opts.withDefaults()

	events := NewEventLogService(d.Repos.Events)
	engine := NewEngine(d.Dialer, d.Opts.WeatherHost, d.Opts.DefaultCity, d.Repos.Config, d.Log.Named("net"))
	status := NewStatusService(engine)
	engine.OnError(func(task string, err error) {
		status.SetLastError(task + ": " + err.Error())
		events.Record(context.Background(), models.EventFetchError, err.Error(), map[string]any{"task": task})
	})

	sleeper := NewSleepService(d.Display, d.Button, d.Radio, d.Power, events, d.Log.Named("sleep"))
	updater := NewUpdateService(d.Repos.Config, d.Image, d.Radio, d.Power, engine.Reset, events, d.Log.Named("ota"))

	acts := &modeActions{
		radio:   d.Radio,
		power:   d.Power,
		sleeper: sleeper,
		status:  status,
		apSSID:  d.Opts.APSSID,
		log:     d.Log,
	}
	mode := NewModeService(acts, d.Log.Named("mode"))
	mode.Notify = func(from, to models.SystemMode) {
		events.Record(context.Background(), models.EventModeChange, "mode changed to "+to.String(),
			map[string]any{"from": from.String(), "to": to.String()})
	}
	status.BindMode(mode.Current)

	loop := NewLoop(mode, engine, updater, d.Button, d.Radio, d.Repos.Config, events, d.Log.Named("loop"), d.Opts.UpdateCheckInterval)

	return &Service{
		Mode:    mode,
		Engine:  engine,
		Updater: updater,
		Sleeper: sleeper,
		Status:  status,
		Config:  NewUserConfigService(d.Repos.Config),
		Events:  events,
		Loop:    loop,
	}
}
