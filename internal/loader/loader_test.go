package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLoader() *Loader {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sensorCSV = `device_id,position_latitude,position_longitude,max_severity,timestamp,event_type,speed_kmh
dev-1,53.3498,-6.2603,7,1757059200,braking,21.5
dev-2,53.3499,-6.2604,3,1757059260,swerving,18.0
dev-3,not-a-number,-6.2605,5,1757059320,braking,20.0
dev-4,53.3500,-6.2606,5,0,braking,20.0
`

func TestLoad_SensorOnly(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv", sensorCSV)

	ds, err := testLoader().Load(Paths{SensorCSV: sensorPath})
	require.NoError(t, err)

	require.Len(t, ds.Readings, 2)
	assert.Equal(t, "dev-1", ds.Readings[0].DeviceID)
	assert.Equal(t, 2, ds.Skipped.SensorRows)
	assert.Empty(t, ds.Reports)
}

func TestLoad_AllDatasets(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv", sensorCSV)
	infraPath := writeCSV(t, "infra.csv",
		`lat,lng,date,time,infrastructuretype,finalcomment
53.3501,-6.2601,2025-09-05,08:30,Pothole,deep pothole
bad,-6.2601,2025-09-05,08:31,Pothole,skipped row
`)
	ridePath := writeCSV(t, "ride.csv",
		`lat,lng,date,time,incidenttype,commentfinal,incidentrating
53.3502,-6.2602,2025-09-05,17:45,Close Pass,van too close,2
`)

	ds, err := testLoader().Load(Paths{SensorCSV: sensorPath, InfraCSV: infraPath, RideCSV: ridePath})
	require.NoError(t, err)

	require.Len(t, ds.Reports, 2)
	assert.Equal(t, domain.ReportInfrastructure, ds.Reports[0].Kind)
	assert.Equal(t, "Pothole", ds.Reports[0].Theme)
	assert.Equal(t, domain.ReportRide, ds.Reports[1].Kind)
	assert.InDelta(t, 2.0, ds.Reports[1].Rating, 1e-9)

	assert.Equal(t, 1, ds.Skipped.InfraRows)
	assert.Equal(t, 0, ds.Skipped.RideRows)
}

func TestLoad_SensorFileRequired(t *testing.T) {
	_, err := testLoader().Load(Paths{SensorCSV: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}

func TestLoad_MissingPerceptionFilesTolerated(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv", sensorCSV)
	dir := t.TempDir()

	ds, err := testLoader().Load(Paths{
		SensorCSV: sensorPath,
		InfraCSV:  filepath.Join(dir, "no-infra.csv"),
		RideCSV:   filepath.Join(dir, "no-ride.csv"),
	})
	require.NoError(t, err)
	assert.Empty(t, ds.Reports)
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv",
		`device_id,position_latitude,max_severity,timestamp
dev-1,53.3498,7,1757059200
`)

	_, err := testLoader().Load(Paths{SensorCSV: sensorPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position_longitude")
}

func TestLoad_HeaderCaseInsensitive(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv",
		`Device_ID,Position_Latitude,Position_Longitude,Max_Severity,Timestamp
dev-1,53.3498,-6.2603,7,1757059200
`)

	ds, err := testLoader().Load(Paths{SensorCSV: sensorPath})
	require.NoError(t, err)
	require.Len(t, ds.Readings, 1)
	assert.Equal(t, "dev-1", ds.Readings[0].DeviceID)
}

func TestLoad_ShortRowSkipped(t *testing.T) {
	sensorPath := writeCSV(t, "sensor.csv",
		`device_id,position_latitude,position_longitude,max_severity,timestamp
dev-1,53.3498
dev-2,53.3499,-6.2604,3,1757059260
`)

	ds, err := testLoader().Load(Paths{SensorCSV: sensorPath})
	require.NoError(t, err)
	require.Len(t, ds.Readings, 1)
	assert.Equal(t, "dev-2", ds.Readings[0].DeviceID)
	assert.Equal(t, 1, ds.Skipped.SensorRows)
}

func TestDataset_TrendEvents(t *testing.T) {
	later := time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 9, 4, 10, 0, 0, 0, time.UTC)
	ds := &Dataset{
		Readings: []domain.SensorReading{
			{Timestamp: later},
			{Timestamp: earlier},
		},
	}

	events := ds.TrendEvents()
	require.Len(t, events, 2)
	assert.Equal(t, earlier, events[0])
	assert.Equal(t, later, events[1])
}
