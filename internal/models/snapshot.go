package models

import "time"

// WeatherSnapshot is the last good current-conditions fetch.
// Produced only by the network engine; read-only everywhere else.
type WeatherSnapshot struct {
	Temperature string    `json:"temperature"` // signed, unit stripped, e.g. "+21"
	Condition   string    `json:"condition"`
	Humidity    string    `json:"humidity"` // always carries a trailing %
	Wind        string    `json:"wind"`     // rounded m/s, or "N/A"
	Pressure    string    `json:"pressure"` // rounded mmHg
	Valid       bool      `json:"valid"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ForecastEntry is one composed human-readable forecast line.
type ForecastEntry struct {
	Summary string `json:"summary"`
	Valid   bool   `json:"valid"`
}

// ForecastDays is the number of days fetched per forecast cycle.
// The batch is all-or-nothing: one cycle produces all entries or none.
const ForecastDays = 3

// DeviceStatus is what the display layer reads each refresh.
type DeviceStatus struct {
	Mode         string                      `json:"mode"`
	Weather      WeatherSnapshot             `json:"weather"`
	Forecast     [ForecastDays]ForecastEntry `json:"forecast"`
	LastError    string                      `json:"last_error,omitempty"`
	LuckyPending bool                        `json:"lucky_pending,omitempty"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}
