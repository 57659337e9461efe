package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"statusboard/internal/models"
	"statusboard/internal/sanitize"
)

// The forecast payload is decoded through this filtered shape so only the
// date, min/max temperature and hourly description fields are ever held in
// memory; everything else in the tree is discarded by the decoder.
type forecastPayload struct {
	Weather []forecastDay `json:"weather"`
}

type forecastDay struct {
	Date     string         `json:"date"`
	MinTempC string         `json:"mintempC"`
	MaxTempC string         `json:"maxtempC"`
	Hourly   []forecastHour `json:"hourly"`
}

type forecastHour struct {
	Time   string          `json:"time"`
	DescVi []forecastValue `json:"lang_vi"`
	Desc   []forecastValue `json:"weatherDesc"`
}

type forecastValue struct {
	Value string `json:"value"`
}

// Fixed time-of-day keys matched against the hourly entries.
var dayPeriods = []struct {
	key   string
	label string
}{
	{"600", "sang"},   // morning
	{"1200", "trua"},  // noon
	{"1500", "chieu"}, // afternoon
	{"1800", "toi"},   // evening
}

var errForecastEmpty = errors.New("forecast batch has no usable first day")

// ParseForecast composes one human-readable line per day from the filtered
// forecast tree. The batch is all-or-nothing: it is accepted only when at
// least the first day's line is non-empty.
func ParseForecast(body []byte) ([models.ForecastDays]models.ForecastEntry, error) {
	var out [models.ForecastDays]models.ForecastEntry

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return out, fmt.Errorf("decode forecast: %w", err)
	}

	for i := 0; i < models.ForecastDays && i < len(payload.Weather); i++ {
		line := composeDayLine(payload.Weather[i])
		out[i] = models.ForecastEntry{Summary: line, Valid: line != ""}
	}
	if out[0].Summary == "" {
		return [models.ForecastDays]models.ForecastEntry{}, errForecastEmpty
	}
	return out, nil
}

// composeDayLine renders "25/08 24-33C sang: mua rao, trua: nang, ...".
func composeDayLine(day forecastDay) string {
	var parts []string
	for _, p := range dayPeriods {
		desc := hourlyDescription(day.Hourly, p.key)
		if desc == "" {
			continue
		}
		parts = append(parts, p.label+": "+desc)
	}
	if len(parts) == 0 {
		return ""
	}

	head := shortDate(day.Date)
	if day.MinTempC != "" && day.MaxTempC != "" {
		head += " " + day.MinTempC + "-" + day.MaxTempC + "C"
	}
	return strings.TrimSpace(head + " " + strings.Join(parts, ", "))
}

func hourlyDescription(hours []forecastHour, key string) string {
	for _, h := range hours {
		if h.Time != key {
			continue
		}
		values := h.DescVi
		if len(values) == 0 {
			values = h.Desc
		}
		if len(values) == 0 {
			return ""
		}
		return sanitize.CollapseSpaces(sanitize.FoldAccents(values[0].Value))
	}
	return ""
}

// shortDate converts "2026-08-25" to "25/08"; anything unparsable passes
// through untouched.
func shortDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1]
}
