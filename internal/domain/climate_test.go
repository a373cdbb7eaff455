package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClimateLine = "0011992  30.00  32.00  36.00  40.00  45.00  50.00  55.00  58.00  54.00  48.00  42.00  50.00"

func TestParseClimateLine(t *testing.T) {
	t.Run("state record", func(t *testing.T) {
		rec, err := ParseClimateLine(testClimateLine)
		require.NoError(t, err)

		assert.Equal(t, "0011992", rec.Code)
		assert.Equal(t, "001", rec.StateCode)
		assert.Equal(t, "AL", rec.State)
		assert.Equal(t, 1992, rec.Year)
		assert.Equal(t, 30.0, rec.Monthly[0])
		assert.Equal(t, 50.0, rec.Monthly[11])
		assert.InDelta(t, 45.0, rec.YearlyMean, 1e-9)
	})

	t.Run("full ten character code", func(t *testing.T) {
		rec, err := ParseClimateLine("0040022001  1 2 3 4 5 6 7 8 9 10 11 12")
		require.NoError(t, err)
		assert.Equal(t, "CA", rec.State)
		assert.Equal(t, 2001, rec.Year)
		assert.InDelta(t, 6.5, rec.YearlyMean, 1e-9)
	})

	t.Run("region code maps to other", func(t *testing.T) {
		rec, err := ParseClimateLine("1010022001  1 2 3 4 5 6 7 8 9 10 11 12")
		require.NoError(t, err)
		assert.Equal(t, OtherState, rec.State)
	})

	t.Run("missing-value markers parse as numbers", func(t *testing.T) {
		rec, err := ParseClimateLine("0050052015  -1.20 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99 -99.99")
		require.NoError(t, err)
		assert.Equal(t, -99.99, rec.Monthly[1])
	})

	errorCases := []struct {
		name string
		line string
	}{
		{"too few fields", "0011992  1 2 3"},
		{"too many fields", "0011992  1 2 3 4 5 6 7 8 9 10 11 12 13"},
		{"short code", "011992  1 2 3 4 5 6 7 8 9 10 11 12"},
		{"non-numeric year", "001199X  1 2 3 4 5 6 7 8 9 10 11 12"},
		{"non-numeric month", "0011992  1 2 3 4 5 six 7 8 9 10 11 12"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseClimateLine(tc.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedClimateLine)
		})
	}
}

func TestYearlyMeanIsMeanOfTwelveMonths(t *testing.T) {
	lines := []string{
		testClimateLine,
		"0410022010  0.11 0.22 0.33 0.44 0.55 0.66 0.77 0.88 0.99 1.10 1.21 1.32",
		"0290052003  -2.10 -1.80 -1.00 0.40 1.90 2.30 1.10 -0.50 -1.40 -2.20 -3.00 -3.30",
	}
	for _, line := range lines {
		rec, err := ParseClimateLine(line)
		require.NoError(t, err)

		var sum float64
		for _, v := range rec.Monthly {
			sum += v
		}
		assert.InDelta(t, sum/12, rec.YearlyMean, 1e-12, line)
	}
}

func TestStateAbbrev(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"001", "AL"},
		{"004", "CA"},
		{"048", "WY"},
		{"050", "AK"},
		{"049", OtherState},
		{"110", OtherState},
		{"", OtherState},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, StateAbbrev(tt.code))
		})
	}
}

func TestYearRange_Contains(t *testing.T) {
	r := DefaultYearRange
	assert.False(t, r.Contains(1991))
	assert.True(t, r.Contains(1992))
	assert.True(t, r.Contains(2015))
	assert.False(t, r.Contains(2016))
}

func TestClimateTable_FirstMatchWins(t *testing.T) {
	table := NewClimateTable(Temperature)
	table.Add(ClimateRecord{State: "AL", Year: 1992, YearlyMean: 1})
	table.Add(ClimateRecord{State: "AL", Year: 1992, YearlyMean: 2})
	table.Add(ClimateRecord{State: "AL", Year: 1993, YearlyMean: 3})

	rec, ok := table.Lookup("AL", 1992)
	require.True(t, ok)
	assert.Equal(t, 1.0, rec.YearlyMean)
	assert.Equal(t, 3, table.Len())

	_, ok = table.Lookup("AL", 1994)
	assert.False(t, ok)
}

func TestClimateRecord_Month(t *testing.T) {
	rec, err := ParseClimateLine(testClimateLine)
	require.NoError(t, err)

	v, ok := rec.Month(1)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	v, ok = rec.Month(12)
	assert.True(t, ok)
	assert.Equal(t, 50.0, v)

	_, ok = rec.Month(0)
	assert.False(t, ok)
	_, ok = rec.Month(13)
	assert.False(t, ok)
}
