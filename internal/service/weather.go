package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"statusboard/internal/models"
)

// hPaToMmHg converts hectopascal to millimetres of mercury.
const hPaToMmHg = 0.75006

// windNotAvailable is shown when the wind field has no numeric prefix.
const windNotAvailable = "N/A"

var errWeatherIncomplete = errors.New("weather record missing temperature or condition")

// ParseWeather decodes the pipe-delimited current-conditions line
// (temp|cond|humidity|wind|pressure) into a snapshot. The record is accepted
// only when temperature and condition survive cleaning; anything else
// returns an error so the caller keeps the previous snapshot.
func ParseWeather(body []byte, now time.Time) (models.WeatherSnapshot, error) {
	fields := strings.Split(strings.TrimSpace(string(body)), "|")
	if len(fields) < 5 {
		return models.WeatherSnapshot{}, fmt.Errorf("weather record has %d fields, want 5", len(fields))
	}

	temp := cleanTemperature(fields[0])
	cond := strings.TrimSpace(fields[1])
	if temp == "" || cond == "" {
		return models.WeatherSnapshot{}, errWeatherIncomplete
	}

	return models.WeatherSnapshot{
		Temperature: temp,
		Condition:   cond,
		Humidity:    normalizeHumidity(fields[2]),
		Wind:        convertWind(fields[3]),
		Pressure:    convertPressure(fields[4]),
		Valid:       true,
		FetchedAt:   now,
	}, nil
}

// cleanTemperature strips unit decoration but preserves the sign:
// "+21°C" -> "+21", " -3 " -> "-3".
func cleanTemperature(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if i == 0 && (r == '+' || r == '-') {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		break
	}
	out := b.String()
	if out == "+" || out == "-" {
		return ""
	}
	return out
}

// normalizeHumidity guarantees a trailing percent marker: "56" -> "56%".
func normalizeHumidity(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.TrimSuffix(s, "%") + "%"
}

// convertWind turns "11 km/h" into a rounded m/s integer. A field with no
// parsable numeric prefix yields a not-available marker instead of failing
// the whole record.
func convertWind(s string) string {
	kmh, ok := numericPrefix(s)
	if !ok {
		return windNotAvailable
	}
	return strconv.Itoa(int(math.Round(kmh / 3.6)))
}

// convertPressure turns "1015 hPa" into rounded mmHg.
func convertPressure(s string) string {
	hpa, ok := numericPrefix(s)
	if !ok {
		return ""
	}
	return strconv.Itoa(int(math.Round(hpa * hPaToMmHg)))
}

// numericPrefix parses the leading decimal number of a trimmed field.
func numericPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
