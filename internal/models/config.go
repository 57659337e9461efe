package models

// ConfigRecord is the user configuration persisted across power cycles.
// String fields are capacity-bounded by the flash layout; Save truncates
// over-length values rather than failing.
type ConfigRecord struct {
	SSID            string `json:"ssid"`
	Password        string `json:"-"` // never exposed over the portal
	City            string `json:"city"`
	GreetingFeedURL string `json:"greeting_feed_url"`
	FirmwareURL     string `json:"firmware_url"`
	LuckyImageURL   string `json:"lucky_image_url"`
	FirmwareETag    string `json:"firmware_etag"`
	TimezoneOffset  int32  `json:"timezone_offset_s"` // seconds east of UTC
	ValidSignature  bool   `json:"valid"`
}
