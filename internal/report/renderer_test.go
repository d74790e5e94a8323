package report_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airqtools/airq/internal/analytics"
	"github.com/airqtools/airq/internal/report"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeriesWriter_WritesSeries(t *testing.T) {
	dir := t.TempDir()
	w := report.NewSeriesWriter(dir, testLogger())

	unit := "µg/m³"
	s := report.DailySeries("daily pm25 749", []analytics.DailyAverageRow{
		{Date: "2016-03-06", AvgValue: 15, Unit: &unit},
		{Date: "2016-03-07", AvgValue: 40, Unit: &unit},
	})
	require.NoError(t, w.Render(s))

	data, err := os.ReadFile(filepath.Join(dir, "daily-pm25-749.series.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2016-03-06"`)
	assert.Contains(t, string(data), "µg/m³")
}

func TestSeriesWriter_SkipsEmptySeries(t *testing.T) {
	dir := t.TempDir()
	w := report.NewSeriesWriter(dir, testLogger())

	require.NoError(t, w.Render(report.DailySeries("nothing", nil)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "empty result sets produce no files")
}

func TestCompareSeries_SplitsPerLocation(t *testing.T) {
	rows := []analytics.CompareRow{
		{LocationID: 749, Date: "2016-03-06", AvgValue: 15},
		{LocationID: 8132, Date: "2016-03-06", AvgValue: 6},
		{LocationID: 749, Date: "2016-03-07", AvgValue: 40},
	}

	series := report.CompareSeries("compare pm25", rows)
	require.Len(t, series, 2)
	assert.Equal(t, "compare pm25 location 749", series[0].Name)
	assert.Equal(t, []string{"2016-03-06", "2016-03-07"}, series[0].Labels)
	assert.Equal(t, []float64{15, 40}, series[0].Values)
	assert.Equal(t, []float64{6}, series[1].Values)
}

func TestUptimeSeries(t *testing.T) {
	s := report.UptimeSeries("uptime pm25", []analytics.UptimeRow{
		{SensorID: 3917, TotalReadings: 3},
		{SensorID: 25425, TotalReadings: 2},
	})
	assert.Equal(t, []string{"sensor 3917", "sensor 25425"}, s.Labels)
	assert.Equal(t, []float64{3, 2}, s.Values)
}
