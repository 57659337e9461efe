package service

import (
	"errors"

	"statusboard/internal/models"
	"statusboard/internal/repository"
)

// Save-validation contract for the portal: a record is only accepted with
// SSID, city and timezone all present. The timezone presence check happens
// at the form layer; range sanity lives here.
var (
	ErrMissingSSID       = errors.New("ssid is required")
	ErrMissingCity       = errors.New("city is required")
	ErrTimezoneOutOfBand = errors.New("timezone offset out of range")
)

const maxTimezoneOffset = 14 * 3600 // seconds

type UserConfigService struct {
	repo repository.ConfigRepo
}

func NewUserConfigService(repo repository.ConfigRepo) *UserConfigService {
	return &UserConfigService{repo: repo}
}

func (s *UserConfigService) Get() models.ConfigRecord {
	return s.repo.Load()
}

func (s *UserConfigService) Save(c models.ConfigRecord) error {
	if c.SSID == "" {
		return ErrMissingSSID
	}
	if c.City == "" {
		return ErrMissingCity
	}
	if c.TimezoneOffset > maxTimezoneOffset || c.TimezoneOffset < -maxTimezoneOffset {
		return ErrTimezoneOutOfBand
	}
	// A save from the portal must not clobber the stored update baseline.
	if c.FirmwareETag == "" {
		c.FirmwareETag = s.repo.Load().FirmwareETag
	}
	return s.repo.Save(c)
}
