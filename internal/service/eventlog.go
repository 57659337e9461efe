package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// Record appends best-effort: the device keeps running when the log is
// unavailable.
func (s *EventLogService) Record(ctx context.Context, typ, description string, meta any) {
	err := s.eventRepo.Append(ctx, models.DeviceEvent{
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("event append failed", "type", typ, "err", err)
	}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.eventRepo.List(ctx, from, to, strings.TrimSpace(strings.ToUpper(f.Type)))
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
