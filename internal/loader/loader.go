// Package loader reads the three dashboard CSV datasets from disk and turns
// them into domain values. Malformed rows are skipped and counted, never
// fatal; only a missing or unreadable sensor file aborts a load.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// Paths names the CSV files for one load. SensorCSV is required; the two
// perception datasets are optional and an empty path simply yields no
// reports of that kind.
type Paths struct {
	SensorCSV string
	InfraCSV  string
	RideCSV   string
}

// Dataset is the in-memory result of one load.
type Dataset struct {
	Readings []domain.SensorReading
	Reports  []domain.PerceptionReport
	Skipped  domain.SkipCounts
}

// Loader reads and validates the CSV datasets.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader.
func New(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads all configured CSV files. The sensor dataset is the backbone of
// every downstream computation, so its absence is an error; a missing
// perception file is logged and treated as empty.
func (l *Loader) Load(paths Paths) (*Dataset, error) {
	ds := &Dataset{}

	readings, skipped, err := l.loadSensor(paths.SensorCSV)
	if err != nil {
		return nil, fmt.Errorf("load sensor data: %w", err)
	}
	ds.Readings = readings
	ds.Skipped.SensorRows = skipped

	if paths.InfraCSV != "" {
		reports, skipped, err := l.loadInfra(paths.InfraCSV)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load infrastructure reports: %w", err)
			}
			l.logger.Warn("infrastructure report file missing, continuing without it", "path", paths.InfraCSV)
		}
		ds.Reports = append(ds.Reports, reports...)
		ds.Skipped.InfraRows = skipped
	}

	if paths.RideCSV != "" {
		reports, skipped, err := l.loadRide(paths.RideCSV)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load ride reports: %w", err)
			}
			l.logger.Warn("ride report file missing, continuing without it", "path", paths.RideCSV)
		}
		ds.Reports = append(ds.Reports, reports...)
		ds.Skipped.RideRows = skipped
	}

	l.logger.Info("datasets loaded",
		"sensor_readings", len(ds.Readings),
		"perception_reports", len(ds.Reports),
		"skipped_sensor", ds.Skipped.SensorRows,
		"skipped_infra", ds.Skipped.InfraRows,
		"skipped_ride", ds.Skipped.RideRows,
	)
	return ds, nil
}

// TrendEvents extracts the sensor reading timestamps, sorted ascending.
// These are the events the trend analyzer buckets.
func (ds *Dataset) TrendEvents() []time.Time {
	events := make([]time.Time, len(ds.Readings))
	for i, r := range ds.Readings {
		events[i] = r.Timestamp
	}
	return domain.SortTimes(events)
}

func (l *Loader) loadSensor(path string) ([]domain.SensorReading, int, error) {
	var readings []domain.SensorReading
	skipped, err := l.forEachRow(path, "sensor",
		[]string{"position_latitude", "position_longitude", "max_severity", "timestamp"},
		func(get func(string) string) error {
			reading, err := domain.ParseSensorRow(domain.SensorRow{
				Latitude:  get("position_latitude"),
				Longitude: get("position_longitude"),
				Severity:  get("max_severity"),
				Timestamp: get("timestamp"),
				DeviceID:  get("device_id"),
				EventType: get("event_type"),
				SpeedKMH:  get("speed_kmh"),
			})
			if err != nil {
				return err
			}
			readings = append(readings, reading)
			return nil
		})
	if err != nil {
		return nil, 0, err
	}
	return readings, skipped, nil
}

func (l *Loader) loadInfra(path string) ([]domain.PerceptionReport, int, error) {
	var reports []domain.PerceptionReport
	skipped, err := l.forEachRow(path, "infrastructure",
		[]string{"lat", "lng", "date"},
		func(get func(string) string) error {
			report, err := domain.ParseInfraRow(domain.InfraRow{
				Lat:     get("lat"),
				Lng:     get("lng"),
				Date:    get("date"),
				Time:    get("time"),
				Type:    get("infrastructuretype"),
				Comment: get("finalcomment"),
			})
			if err != nil {
				return err
			}
			reports = append(reports, report)
			return nil
		})
	if err != nil {
		return nil, 0, err
	}
	return reports, skipped, nil
}

func (l *Loader) loadRide(path string) ([]domain.PerceptionReport, int, error) {
	var reports []domain.PerceptionReport
	skipped, err := l.forEachRow(path, "ride",
		[]string{"lat", "lng", "date"},
		func(get func(string) string) error {
			report, err := domain.ParseRideRow(domain.RideRow{
				Lat:     get("lat"),
				Lng:     get("lng"),
				Date:    get("date"),
				Time:    get("time"),
				Type:    get("incidenttype"),
				Comment: get("commentfinal"),
				Rating:  get("incidentrating"),
			})
			if err != nil {
				return err
			}
			reports = append(reports, report)
			return nil
		})
	if err != nil {
		return nil, 0, err
	}
	return reports, skipped, nil
}

// forEachRow streams a CSV file, resolving columns by header name, and calls
// handle for every data row. A row error counts as one skip; a header or I/O
// error fails the whole file.
func (l *Loader) forEachRow(path, dataset string, required []string, handle func(get func(string) string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("missing required column %q", name)
		}
	}

	skipped := 0
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A mangled row (stray quote, wrong delimiter) is a skip like
			// any other parse failure.
			l.logger.Warn("unreadable row, skipping", "dataset", dataset, "line", line, "error", err)
			skipped++
			continue
		}

		get := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		if err := handle(get); err != nil {
			l.logger.Warn("invalid row, skipping", "dataset", dataset, "line", line, "error", err)
			skipped++
		}
	}
	return skipped, nil
}
