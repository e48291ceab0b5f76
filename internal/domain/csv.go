package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw CSV row types. One field per source column, all strings; parsing and
// validation happen in the ParseXxxRow functions so malformed-row handling
// lives in exactly one place.

// SensorRow mirrors one row of the sensor readings CSV.
type SensorRow struct {
	Latitude  string
	Longitude string
	Severity  string
	Timestamp string
	DeviceID  string
	EventType string
	SpeedKMH  string
}

// InfraRow mirrors one row of the infrastructure reports CSV.
type InfraRow struct {
	Lat     string
	Lng     string
	Date    string
	Time    string
	Type    string
	Comment string
}

// RideRow mirrors one row of the ride reports CSV.
type RideRow struct {
	Lat     string
	Lng     string
	Date    string
	Time    string
	Type    string
	Comment string
	Rating  string
}

var (
	errInvalidCoordinate = errors.New("invalid coordinate")
	errInvalidTimestamp  = errors.New("invalid timestamp")
	errInvalidSeverity   = errors.New("invalid severity")
)

// ParseSensorRow validates and converts one sensor CSV row. An error means
// the row must be skipped and counted, never that the load should abort.
func ParseSensorRow(row SensorRow) (SensorReading, error) {
	geo, err := parseCoordinate(row.Latitude, row.Longitude)
	if err != nil {
		return SensorReading{}, fmt.Errorf("sensor row: %w", err)
	}

	severity, err := strconv.ParseFloat(strings.TrimSpace(row.Severity), 64)
	if err != nil || severity < 0 {
		return SensorReading{}, fmt.Errorf("sensor row: %w: %q", errInvalidSeverity, row.Severity)
	}

	ts, err := parseUnixSeconds(row.Timestamp)
	if err != nil {
		return SensorReading{}, fmt.Errorf("sensor row: %w", err)
	}

	return SensorReading{
		DeviceID:  strings.TrimSpace(row.DeviceID),
		Geo:       geo,
		Severity:  severity,
		EventType: strings.TrimSpace(row.EventType),
		SpeedKMH:  parseFloatOrZero(row.SpeedKMH),
		Timestamp: ts,
	}, nil
}

// ParseInfraRow validates and converts one infrastructure report CSV row.
func ParseInfraRow(row InfraRow) (PerceptionReport, error) {
	geo, err := parseCoordinate(row.Lat, row.Lng)
	if err != nil {
		return PerceptionReport{}, fmt.Errorf("infra row: %w", err)
	}

	ts, err := parseDateTime(row.Date, row.Time)
	if err != nil {
		return PerceptionReport{}, fmt.Errorf("infra row: %w", err)
	}

	return PerceptionReport{
		Kind:      ReportInfrastructure,
		Geo:       geo,
		Theme:     strings.TrimSpace(row.Type),
		Comment:   strings.TrimSpace(row.Comment),
		Timestamp: ts,
	}, nil
}

// ParseRideRow validates and converts one ride report CSV row. A missing or
// malformed rating is treated as unrated, not as a skip: the report's
// location and comment still carry signal.
func ParseRideRow(row RideRow) (PerceptionReport, error) {
	geo, err := parseCoordinate(row.Lat, row.Lng)
	if err != nil {
		return PerceptionReport{}, fmt.Errorf("ride row: %w", err)
	}

	ts, err := parseDateTime(row.Date, row.Time)
	if err != nil {
		return PerceptionReport{}, fmt.Errorf("ride row: %w", err)
	}

	return PerceptionReport{
		Kind:      ReportRide,
		Geo:       geo,
		Theme:     strings.TrimSpace(row.Type),
		Comment:   strings.TrimSpace(row.Comment),
		Rating:    parseFloatOrZero(row.Rating),
		Timestamp: ts,
	}, nil
}

func parseCoordinate(latStr, lonStr string) (Geo, error) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if errLat != nil || errLon != nil || !ValidCoordinate(lat, lon) {
		return Geo{}, fmt.Errorf("%w: (%q, %q)", errInvalidCoordinate, latStr, lonStr)
	}
	return Geo{Lat: lat, Lon: lon}, nil
}

func parseUnixSeconds(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidTimestamp, s)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// parseDateTime combines the report CSVs' separate date and time columns.
// Seconds are optional in the time column.
func parseDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, time.UTC); err == nil {
			return t, nil
		}
	}
	// Date-only rows are acceptable; the time of day is not load-bearing.
	if t, err := time.ParseInLocation("2006-01-02", date, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q %q", errInvalidTimestamp, date, clock)
}

func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
