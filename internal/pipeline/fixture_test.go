package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/noaa"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/couchcryptid/wildfire-climate-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runFixture runs the pipeline over testdata with the real file adapters and
// returns the two output files.
func runFixture(t *testing.T, workers int) (climate, features []byte) {
	t.Helper()
	out := t.TempDir()
	climatePath := filepath.Join(out, "climate.csv")
	featuresPath := filepath.Join(out, "features.csv")

	logger := discardLogger()
	source := noaa.NewSource(noaa.NewLoader(domain.DefaultYearRange, logger), map[domain.Variable]string{
		domain.Temperature:   filepath.Join("testdata", "climdiv-tmpcst.txt"),
		domain.Precipitation: filepath.Join("testdata", "climdiv-pcpnst.txt"),
		domain.DroughtIndex:  filepath.Join("testdata", "climdiv-pdsist.txt"),
	})
	p := pipeline.New(
		source,
		csvfile.NewReader(filepath.Join("testdata", "fires.csv"), logger),
		csvfile.NewWriter(climatePath, featuresPath, logger),
		logger,
		newTestMetrics(),
		pipeline.WithWorkers(workers),
	)
	require.NoError(t, p.Run(context.Background()))

	climate, err := os.ReadFile(climatePath)
	require.NoError(t, err)
	features, err = os.ReadFile(featuresPath)
	require.NoError(t, err)
	return climate, features
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_WithFixtureData(t *testing.T) {
	climate, features := runFixture(t, 2)

	assert.Equal(t, readTestdata(t, "want_climate.csv"), string(climate))
	assert.Equal(t, readTestdata(t, "want_features.csv"), string(features))
}

func TestPipeline_WithFixtureData_DeterministicAcrossWorkers(t *testing.T) {
	climateOne, featuresOne := runFixture(t, 1)
	for _, workers := range []int{2, 3, 8} {
		climate, features := runFixture(t, workers)
		assert.Equal(t, climateOne, climate, "climate output with %d workers", workers)
		assert.Equal(t, featuresOne, features, "feature output with %d workers", workers)
	}
}
