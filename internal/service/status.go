package service

import (
	"sync"
	"time"

	"statusboard/internal/models"
)

// StatusService composes the read-mostly view the display layer and portal
// consume. The control loop is the only writer; readers arrive on portal
// goroutines, hence the lock.
type StatusService struct {
	engine NetEngine

	mu        sync.Mutex
	modeFn    func() models.SystemMode
	lastError string
	lucky     bool
}

func NewStatusService(engine NetEngine) *StatusService {
	return &StatusService{engine: engine}
}

// BindMode connects the mode accessor after the FSM is constructed.
func (s *StatusService) BindMode(fn func() models.SystemMode) {
	s.mu.Lock()
	s.modeFn = fn
	s.mu.Unlock()
}

// Get returns the current status. A pending lucky-screen request is
// delivered to exactly one reader and then cleared.
func (s *StatusService) Get() models.DeviceStatus {
	s.mu.Lock()
	mode := models.ModeNormal
	if s.modeFn != nil {
		mode = s.modeFn()
	}
	lastErr := s.lastError
	lucky := s.lucky
	s.lucky = false
	s.mu.Unlock()

	return models.DeviceStatus{
		Mode:         mode.String(),
		Weather:      s.engine.Weather(),
		Forecast:     s.engine.Forecast(),
		LastError:    lastErr,
		LuckyPending: lucky,
		UpdatedAt:    time.Now().UTC(),
	}
}

// SetLastError records the most recent transient failure for display.
func (s *StatusService) SetLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// RequestLucky flags a transient lucky-number screen request.
func (s *StatusService) RequestLucky() {
	s.mu.Lock()
	s.lucky = true
	s.mu.Unlock()
}
