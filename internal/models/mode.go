package models

// SystemMode selects which subsystem owns the device at any instant.
// Exactly one mode is active; transitions are driven by button events only.
type SystemMode int

const (
	ModeNormal SystemMode = iota
	ModeConfigPortal
	ModeManualUpdatePortal
	ModeSleepConfirm
	ModeRemoteUpdate
)

func (m SystemMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeConfigPortal:
		return "CONFIG_PORTAL"
	case ModeManualUpdatePortal:
		return "MANUAL_UPDATE_PORTAL"
	case ModeSleepConfirm:
		return "SLEEP_CONFIRM"
	case ModeRemoteUpdate:
		return "REMOTE_UPDATE"
	default:
		return "UNKNOWN"
	}
}
