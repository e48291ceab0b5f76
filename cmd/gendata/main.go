// Command gendata generates synthetic Dublin-area CSV fixtures for the three
// input datasets. It plants a configurable number of high-severity clusters
// plus background noise, then runs the actual detection code over the output
// so the printed stats can seed test assertions.
//
// Usage:
//
//	go run ./cmd/gendata -out data -readings 500 -reports 60 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// Dublin city centre; generated points stay within a few km of it.
const (
	baseLat = 53.3498
	baseLng = -6.2603

	// 0.00018 degrees of latitude is about 20 meters.
	clusterSpreadDeg = 0.00018
	citySpreadDeg    = 0.03
)

var baseDate = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

var eventTypes = []string{"braking", "swerving", "pothole", "acceleration"}

var infraComments = []string{
	"Deep pothole in the cycle lane, surface badly broken",
	"Gravel and debris across the whole lane here",
	"Cycle lane just disappears at the junction",
	"Parked cars blocking the bike lane every morning",
	"Road surface cracked and uneven for about fifty meters",
}

var rideComments = []string{
	"Very close pass by a bus, felt dangerous",
	"Driver overtook with no room at the bend",
	"Taxi pulled out without looking, had to brake hard",
	"Close overtake on the narrow stretch near the bridge",
	"Van passed within inches at speed",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "output directory for the CSV files")
	readings := flag.Int("readings", 500, "number of sensor readings")
	reports := flag.Int("reports", 60, "number of perception reports (split between infra and ride)")
	clusters := flag.Int("clusters", 5, "number of planted high-severity clusters")
	days := flag.Int("days", 14, "number of days the data spans")
	seed := flag.Int64("seed", 42, "random seed for reproducible output")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	centers := make([]domain.Geo, *clusters)
	for i := range centers {
		centers[i] = domain.Geo{
			Lat: baseLat + (rng.Float64()*2-1)*citySpreadDeg,
			Lon: baseLng + (rng.Float64()*2-1)*citySpreadDeg,
		}
	}

	sensorRows := genSensorRows(rng, centers, *readings, *days)
	infraRows, rideRows := genReportRows(rng, centers, *reports, *days)

	if err := writeCSV(filepath.Join(*outDir, "sensor_readings.csv"),
		[]string{"device_id", "position_latitude", "position_longitude", "max_severity", "timestamp", "event_type", "speed_kmh"},
		sensorRows); err != nil {
		return fmt.Errorf("writing sensor csv: %w", err)
	}
	if err := writeCSV(filepath.Join(*outDir, "infrastructure_reports.csv"),
		[]string{"lat", "lng", "date", "time", "infrastructuretype", "finalcomment"},
		infraRows); err != nil {
		return fmt.Errorf("writing infra csv: %w", err)
	}
	if err := writeCSV(filepath.Join(*outDir, "ride_reports.csv"),
		[]string{"lat", "lng", "date", "time", "incidenttype", "commentfinal", "incidentrating"},
		rideRows); err != nil {
		return fmt.Errorf("writing ride csv: %w", err)
	}

	log.Printf("wrote %d sensor readings, %d infra reports, %d ride reports to %s",
		len(sensorRows), len(infraRows), len(rideRows), *outDir)

	printStats(sensorRows)
	return nil
}

// genSensorRows plants 60% of readings in tight high-severity clusters and
// scatters the rest across the city at low severity.
func genSensorRows(rng *rand.Rand, centers []domain.Geo, n, days int) [][]string {
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		var lat, lng, severity float64
		if rng.Float64() < 0.6 {
			c := centers[rng.Intn(len(centers))]
			lat = c.Lat + (rng.Float64()*2-1)*clusterSpreadDeg
			lng = c.Lon + (rng.Float64()*2-1)*clusterSpreadDeg
			severity = 5 + rng.Float64()*5
		} else {
			lat = baseLat + (rng.Float64()*2-1)*citySpreadDeg
			lng = baseLng + (rng.Float64()*2-1)*citySpreadDeg
			severity = rng.Float64() * 4
		}

		ts := baseDate.Add(time.Duration(rng.Intn(days*24*60)) * time.Minute)
		rows = append(rows, []string{
			fmt.Sprintf("device-%03d", rng.Intn(40)),
			strconv.FormatFloat(lat, 'f', 6, 64),
			strconv.FormatFloat(lng, 'f', 6, 64),
			strconv.FormatFloat(severity, 'f', 1, 64),
			strconv.FormatInt(ts.Unix(), 10),
			eventTypes[rng.Intn(len(eventTypes))],
			strconv.FormatFloat(10+rng.Float64()*25, 'f', 1, 64),
		})
	}
	return rows
}

// genReportRows places perception reports near the planted clusters so the
// matcher has something to find. Roughly half infra, half ride.
func genReportRows(rng *rand.Rand, centers []domain.Geo, n, days int) (infra, ride [][]string) {
	for i := 0; i < n; i++ {
		c := centers[rng.Intn(len(centers))]
		lat := c.Lat + (rng.Float64()*2-1)*clusterSpreadDeg
		lng := c.Lon + (rng.Float64()*2-1)*clusterSpreadDeg
		ts := baseDate.Add(time.Duration(rng.Intn(days*24*60)) * time.Minute)

		if i%2 == 0 {
			infra = append(infra, []string{
				strconv.FormatFloat(lat, 'f', 6, 64),
				strconv.FormatFloat(lng, 'f', 6, 64),
				ts.Format("2006-01-02"),
				ts.Format("15:04:05"),
				"Pothole",
				infraComments[rng.Intn(len(infraComments))],
			})
		} else {
			ride = append(ride, []string{
				strconv.FormatFloat(lat, 'f', 6, 64),
				strconv.FormatFloat(lng, 'f', 6, 64),
				ts.Format("2006-01-02"),
				ts.Format("15:04:05"),
				"Close Pass",
				rideComments[rng.Intn(len(rideComments))],
				strconv.Itoa(1 + rng.Intn(5)),
			})
		}
	}
	return infra, ride
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// printStats runs the real detection and trend code over the generated
// readings so the output numbers match what the service would compute.
func printStats(sensorRows [][]string) {
	readings := make([]domain.SensorReading, 0, len(sensorRows))
	for _, row := range sensorRows {
		r, err := domain.ParseSensorRow(domain.SensorRow{
			DeviceID:  row[0],
			Latitude:  row[1],
			Longitude: row[2],
			Severity:  row[3],
			Timestamp: row[4],
			EventType: row[5],
			SpeedKMH:  row[6],
		})
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}

	hotspots := domain.DetectHotspots(readings, domain.ClusterConfig{
		RadiusM:           30,
		MinClusterSize:    3,
		SeverityThreshold: 2,
		SeverityWeight:    0.3,
	})

	times := make([]time.Time, len(readings))
	for i, r := range readings {
		times[i] = r.Timestamp
	}
	buckets := domain.BuildTrend(times, domain.TrendConfig{
		Granularity: domain.GranularityDay,
		Window:      7,
		ZThreshold:  2.0,
	})

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Parsed readings: %d\n", len(readings))
	fmt.Printf("Hotspots: %d\n", len(hotspots))
	for i, h := range hotspots[:min(5, len(hotspots))] {
		fmt.Printf("  %d. %s risk=%s count=%d severity=%.2f at (%.5f, %.5f)\n",
			i+1, h.ID, h.RiskLevel, h.MemberCount, h.AggSeverity, h.Centroid.Lat, h.Centroid.Lon)
	}
	fmt.Printf("Trend buckets: %d\n", len(buckets))
	anomalies := 0
	for _, b := range buckets {
		if b.Anomaly {
			anomalies++
		}
	}
	fmt.Printf("Anomalous buckets: %d\n", anomalies)
}
