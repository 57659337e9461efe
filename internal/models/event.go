package models

import "time"

// Event types recorded in the device event log.
const (
	EventBoot       = "BOOT"
	EventModeChange = "MODE_CHANGE"
	EventFetchError = "FETCH_ERROR"
	EventOTACheck   = "OTA_CHECK"
	EventOTAResult  = "OTA_RESULT"
	EventSleep      = "SLEEP"
)

// DeviceEvent is a single append-only log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
