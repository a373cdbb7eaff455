package csvfile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFireCSV = `FOD_ID,FIRE_NAME,FIRE_YEAR,DISCOVERY_DATE,DISCOVERY_TIME,CONT_DATE,CONT_TIME,LATITUDE,LONGITUDE,STATE
1,FOUNTAIN,2005,2453403.5,1300,2453403.5,1730,40.03694444,-121.00583333,CA
2,"PIGEON, EAST",2004,2453137.5,,2453137.5,,38.93305556,-120.40444444,CA
3,,2004,2453156.5,1600,,,18.0,-66.5,PR
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeFires(t *testing.T) {
	table, err := DecodeFires(strings.NewReader(testFireCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"FOD_ID", "FIRE_NAME", "FIRE_YEAR", "DISCOVERY_DATE", "DISCOVERY_TIME",
		"CONT_DATE", "CONT_TIME", "LATITUDE", "LONGITUDE", "STATE"}, table.Header)
	require.Len(t, table.Fires, 3)

	first := table.Fires[0]
	assert.Equal(t, "CA", first.State)
	assert.Equal(t, 2005, first.FireYear)
	assert.Equal(t, 2453403.5, first.DiscoveryDate)
	require.NotNil(t, first.DiscoveryTime)
	assert.Equal(t, 1300.0, *first.DiscoveryTime)
	require.NotNil(t, first.ContTime)
	assert.Equal(t, 1730.0, *first.ContTime)
	assert.Equal(t, 40.03694444, first.Latitude)
	assert.Equal(t, -121.00583333, first.Longitude)
	assert.Equal(t, "FOUNTAIN", first.Raw[1])

	second := table.Fires[1]
	assert.Nil(t, second.DiscoveryTime)
	assert.Nil(t, second.ContTime)
	require.NotNil(t, second.ContDate)
	assert.Equal(t, "PIGEON, EAST", second.Raw[1])

	third := table.Fires[2]
	assert.Nil(t, third.ContDate)
	assert.Equal(t, "PR", third.State)
	assert.Len(t, third.Raw, len(table.Header))
}

func TestDecodeFires_MissingColumn(t *testing.T) {
	input := "STATE,FIRE_YEAR,DISCOVERY_DATE,LATITUDE,LONGITUDE\nCA,2005,2453403.5,40,-121\n"
	_, err := DecodeFires(strings.NewReader(input))
	require.Error(t, err)
}

func TestDecodeFires_BadNumber(t *testing.T) {
	input := strings.Replace(testFireCSV, "40.03694444", "north", 1)
	_, err := DecodeFires(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode fire row 1")
}

func TestDecodeFires_Empty(t *testing.T) {
	_, err := DecodeFires(strings.NewReader(""))
	require.Error(t, err)
}

func ptrInt(v int64) *int64       { return &v }
func ptrFloat(v float64) *float64 { return &v }

func testEnriched(t *testing.T) ([]string, []domain.EnrichedFire) {
	t.Helper()
	header := []string{"FOD_ID", "STATE"}
	fires := []domain.EnrichedFire{
		{
			Fire: domain.FireRecord{Raw: []string{"1", "CA"}},
			Features: domain.Features{
				ClimateFeatures: domain.ClimateFeatures{
					TmpYearly: 45, PcpYearly: 6.5, PdsiYearly: -1.5,
					Date: "2005-02-02", Month: 2,
					TmpMonthly: 52, PcpMonthly: 2, PdsiMonthly: -2,
				},
				ContainmentFeatures: domain.ContainmentFeatures{
					DayToCont:        ptrInt(1),
					HourToCont:       ptrInt(16),
					NearbyHourToCont: ptrFloat(12.5),
					NearbyDayToCont:  ptrInt(1),
				},
			},
		},
		{
			Fire: domain.FireRecord{Raw: []string{"3", "HI"}},
			Features: domain.Features{
				ClimateFeatures: domain.ClimateFeatures{
					TmpYearly: -99.99, PcpYearly: -99.99, PdsiYearly: -99.99,
					Date: "2004-06-05", Month: 6,
					TmpMonthly: -99.99, PcpMonthly: -99.99, PdsiMonthly: -99.99,
				},
			},
		},
	}
	return header, fires
}

func TestEncodeFeatures(t *testing.T) {
	header, fires := testEnriched(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeFeatures(&buf, header, fires))

	want := "FOD_ID,STATE,tmp_yearly,pcp_yearly,pdsi_yearly,DATE,MONTH,tmp_monthly,pcp_monthly,pdsi_monthly," +
		"DAY_TO_CONT,HOUR_TO_CONT,NEARBY_HOUR_TO_CONT,NEARBY_DAY_TO_CONT\n" +
		"1,CA,45,6.5,-1.5,2005-02-02,2,52,2,-2,1,16,12.5,1\n" +
		"3,HI,-99.99,-99.99,-99.99,2004-06-05,6,-99.99,-99.99,-99.99,,,,\n"
	assert.Equal(t, want, buf.String())
}

func TestEncodeClimate(t *testing.T) {
	header, fires := testEnriched(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeClimate(&buf, header, fires))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "FOD_ID,STATE,tmp_yearly,pcp_yearly,pdsi_yearly,DATE,MONTH,tmp_monthly,pcp_monthly,pdsi_monthly", lines[0])
	assert.Equal(t, "1,CA,45,6.5,-1.5,2005-02-02,2,52,2,-2", lines[1])
}

func TestEncodeFeatures_QuotesOriginalColumns(t *testing.T) {
	_, fires := testEnriched(t)
	fires = fires[:1]
	fires[0].Fire.Raw = []string{"2", "PIGEON, EAST"}

	var buf bytes.Buffer
	require.NoError(t, EncodeFeatures(&buf, []string{"FOD_ID", "FIRE_NAME"}, fires))
	assert.Contains(t, buf.String(), `2,"PIGEON, EAST",45,`)
}

func TestWriter_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	climatePath := filepath.Join(dir, "with_climate.csv")
	outputPath := filepath.Join(dir, "nearby.csv")
	header, fires := testEnriched(t)

	w := NewWriter(climatePath, outputPath, discardLogger())
	require.NoError(t, w.WriteClimate(context.Background(), header, fires))
	require.NoError(t, w.WriteFeatures(context.Background(), header, fires))

	climate, err := os.ReadFile(climatePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(climate), "FOD_ID,STATE,tmp_yearly"))

	output, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(output), "NEARBY_DAY_TO_CONT")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must be cleaned up")
}

func TestWriter_SkipsClimateWithoutPath(t *testing.T) {
	dir := t.TempDir()
	header, fires := testEnriched(t)

	w := NewWriter("", filepath.Join(dir, "nearby.csv"), discardLogger())
	require.NoError(t, w.WriteClimate(context.Background(), header, fires))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	header, fires := testEnriched(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWriter("", filepath.Join(dir, "nearby.csv"), discardLogger())
	require.ErrorIs(t, w.WriteFeatures(ctx, header, fires), context.Canceled)
}

func TestReader_ReadFires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fires.csv")
	require.NoError(t, os.WriteFile(path, []byte(testFireCSV), 0o600))

	table, err := NewReader(path, discardLogger()).ReadFires(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Fires, 3)
}
