package service

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/repository"
	"statusboard/internal/transport"
)

// TaskState is the explicit per-task fetch state.
type TaskState int

const (
	TaskIdle TaskState = iota
	TaskConnecting
	TaskAwaitingHeader
	TaskStreamingBody
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskConnecting:
		return "connecting"
	case TaskAwaitingHeader:
		return "awaiting-header"
	case TaskStreamingBody:
		return "streaming-body"
	default:
		return "unknown"
	}
}

const (
	weatherStaleAfter  = 15 * time.Minute
	forecastStaleAfter = time.Hour

	// A failed cycle backdates the fetch timestamp so the task becomes
	// eligible again after this cooldown instead of the full staleness age.
	retryCooldown = 30 * time.Second

	connectTimeout   = 5 * time.Second
	responseDeadline = 10 * time.Second

	// Body bytes are drained in short time-boxed bursts so one tick never
	// starves the rest of the loop.
	burstBudget = 4 * time.Millisecond
	readChunk   = 512
)

var (
	errResponseDeadline = errors.New("response deadline expired")
	errBodyTooLarge     = errors.New("response body exceeds task buffer")
)

type fetchTask struct {
	name       string
	staleAfter time.Duration
	maxBody    int
	path       func(cfg models.ConfigRecord, now time.Time) string
	apply      func(body []byte, now time.Time) error

	state       TaskState
	conn        transport.Conn
	buf         []byte
	deadline    time.Time
	lastFetched time.Time
}

func (t *fetchTask) stale(now time.Time) bool {
	return t.lastFetched.IsZero() || now.Sub(t.lastFetched) > t.staleAfter
}

// Engine runs the weather and forecast fetch state machines. The two tasks
// share one outbound secure connection, so at most one of them may be
// outside Idle at any time; Tick enforces that by construction.
type Engine struct {
	dialer      transport.Dialer
	host        string
	defaultCity string
	cfg         repository.ConfigRepo
	log         *logger.Logger

	onError func(task string, err error)

	mu       sync.RWMutex
	weather  models.WeatherSnapshot
	forecast [models.ForecastDays]models.ForecastEntry

	weatherTask  *fetchTask
	forecastTask *fetchTask
}

func NewEngine(dialer transport.Dialer, host, defaultCity string, cfg repository.ConfigRepo, log *logger.Logger) *Engine {
	e := &Engine{
		dialer:      dialer,
		host:        host,
		defaultCity: defaultCity,
		cfg:         cfg,
		log:         log,
	}
	e.weatherTask = &fetchTask{
		name:       "weather",
		staleAfter: weatherStaleAfter,
		maxBody:    4 << 10,
		path:       e.weatherPath,
		apply:      e.applyWeather,
	}
	e.forecastTask = &fetchTask{
		name:       "forecast",
		staleAfter: forecastStaleAfter,
		maxBody:    64 << 10,
		path:       e.forecastPath,
		apply:      e.applyForecast,
	}
	return e
}

// OnError registers the transient-error observer (last-error status, event log).
func (e *Engine) OnError(fn func(task string, err error)) { e.onError = fn }

// Tick advances exactly one state transition's worth of work.
func (e *Engine) Tick(now time.Time) {
	if t := e.active(); t != nil {
		e.advance(t, now)
		return
	}
	for _, t := range []*fetchTask{e.weatherTask, e.forecastTask} {
		if t.stale(now) {
			t.state = TaskConnecting
			return
		}
	}
}

// Idle reports whether both tasks are idle.
func (e *Engine) Idle() bool {
	return e.weatherTask.state == TaskIdle && e.forecastTask.state == TaskIdle
}

// States exposes the two task states (weather, forecast).
func (e *Engine) States() (TaskState, TaskState) {
	return e.weatherTask.state, e.forecastTask.state
}

// Reset aborts any in-flight fetch and releases the task buffers. The
// firmware update engine calls this before tearing into a download.
func (e *Engine) Reset() {
	for _, t := range []*fetchTask{e.weatherTask, e.forecastTask} {
		if t.conn != nil {
			_ = t.conn.Close()
			t.conn = nil
		}
		t.buf = nil
		t.state = TaskIdle
	}
}

func (e *Engine) Weather() models.WeatherSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weather
}

func (e *Engine) Forecast() [models.ForecastDays]models.ForecastEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.forecast
}

func (e *Engine) active() *fetchTask {
	if e.weatherTask.state != TaskIdle {
		return e.weatherTask
	}
	if e.forecastTask.state != TaskIdle {
		return e.forecastTask
	}
	return nil
}

func (e *Engine) advance(t *fetchTask, now time.Time) {
	switch t.state {
	case TaskConnecting:
		e.connect(t, now)

	case TaskAwaitingHeader:
		if now.After(t.deadline) {
			e.abort(t, now, errResponseDeadline)
			return
		}
		n, eof, err := e.readBurst(t)
		if err != nil {
			e.abort(t, now, err)
			return
		}
		if n > 0 {
			t.state = TaskStreamingBody
			t.deadline = now.Add(responseDeadline)
			return
		}
		if eof {
			e.finish(t, now)
		}

	case TaskStreamingBody:
		if now.After(t.deadline) {
			e.abort(t, now, errResponseDeadline)
			return
		}
		n, eof, err := e.readBurst(t)
		if err != nil {
			e.abort(t, now, err)
			return
		}
		if n > 0 {
			t.deadline = now.Add(responseDeadline)
		}
		if eof {
			e.finish(t, now)
		}
	}
}

func (e *Engine) connect(t *fetchTask, now time.Time) {
	conn, err := e.dialer.Dial(e.host, connectTimeout)
	if err != nil {
		e.abort(t, now, err)
		return
	}
	if err := transport.WriteGet(conn, e.host, t.path(e.cfg.Load(), now)); err != nil {
		_ = conn.Close()
		e.abort(t, now, err)
		return
	}
	t.conn = conn
	t.buf = t.buf[:0]
	t.state = TaskAwaitingHeader
	t.deadline = now.Add(responseDeadline)
}

// readBurst drains available bytes for at most burstBudget. A read deadline
// hit inside the budget just ends the burst; it is not an error.
func (e *Engine) readBurst(t *fetchTask) (total int, eof bool, err error) {
	stop := time.Now().Add(burstBudget)
	chunk := make([]byte, readChunk)
	for {
		_ = t.conn.SetReadDeadline(stop)
		n, rerr := t.conn.Read(chunk)
		if n > 0 {
			if len(t.buf)+n > t.maxBody {
				return total, false, errBodyTooLarge
			}
			t.buf = append(t.buf, chunk[:n]...)
			total += n
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, true, nil
			}
			var ne net.Error
			if errors.As(rerr, &ne) && ne.Timeout() {
				return total, false, nil
			}
			return total, false, rerr
		}
		if !time.Now().Before(stop) {
			return total, false, nil
		}
	}
}

// finish parses the accumulated response and returns the task to Idle.
// Protocol failures keep the normal refetch cadence; the previous snapshot
// is retained either way.
func (e *Engine) finish(t *fetchTask, now time.Time) {
	_ = t.conn.Close()
	t.conn = nil
	raw := t.buf
	t.buf = nil
	t.state = TaskIdle
	t.lastFetched = now

	status, body, err := transport.ParseResponse(raw)
	if err == nil && status != 200 {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if err == nil {
		err = t.apply(body, now)
	}
	if err != nil {
		e.report(t, err)
	}
}

// abort discards partial data and backdates the fetch timestamp so the task
// retries after a short cooldown.
func (e *Engine) abort(t *fetchTask, now time.Time, err error) {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.buf = nil
	t.state = TaskIdle
	t.lastFetched = now.Add(retryCooldown - t.staleAfter)
	e.report(t, err)
}

func (e *Engine) report(t *fetchTask, err error) {
	if e.log != nil {
		e.log.Warnw("fetch failed", "task", t.name, "err", err)
	}
	if e.onError != nil {
		e.onError(t.name, err)
	}
}

func (e *Engine) applyWeather(body []byte, now time.Time) error {
	snap, err := ParseWeather(body, now)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.weather = snap
	e.mu.Unlock()
	return nil
}

func (e *Engine) applyForecast(body []byte, now time.Time) error {
	entries, err := ParseForecast(body)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.forecast = entries
	e.mu.Unlock()
	return nil
}

func (e *Engine) cityPath(cfg models.ConfigRecord) string {
	city := cfg.City
	if city == "" {
		city = e.defaultCity
	}
	return "/" + url.PathEscape(city)
}

func (e *Engine) weatherPath(cfg models.ConfigRecord, now time.Time) string {
	return e.cityPath(cfg) + "?format=" + url.QueryEscape("%t|%C|%h|%w|%P") + "&lang=vi&" + cacheBust(now)
}

func (e *Engine) forecastPath(cfg models.ConfigRecord, now time.Time) string {
	return e.cityPath(cfg) + "?format=j1&lang=vi&" + cacheBust(now)
}

// cacheBust defeats intermediary caches between the device and the host.
func cacheBust(now time.Time) string {
	return "ts=" + strconv.FormatInt(now.UnixNano(), 10)
}
