package repository

import (
	"context"
	"database/sql"
	"time"

	"statusboard/internal/models"
	"statusboard/internal/repository/flash"
)

// ConfigRepo is the persistent user configuration. Load never fails; an
// invalid or partially written record decodes to empty fields.
type ConfigRepo interface {
	Load() models.ConfigRecord
	Save(models.ConfigRecord) error
}

// EventRepo is the append-only device event log.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
	Prune(ctx context.Context) error
}

type Repository struct {
	Config ConfigRepo
	Events EventRepo
}

func NewRepository(dev flash.Device, db *sql.DB) *Repository {
	return &Repository{
		Config: NewConfigFlash(dev),
		Events: NewEventSQLite(db),
	}
}
