package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Variable identifies one climdiv element. Its value prefixes the derived
// output columns (tmp_yearly, pcp_monthly, ...).
type Variable string

const (
	Temperature   Variable = "tmp"
	Precipitation Variable = "pcp"
	DroughtIndex  Variable = "pdsi"
)

// Variables lists every climate variable in output column order.
var Variables = []Variable{Temperature, Precipitation, DroughtIndex}

// OtherState is the abbreviation assigned to climdiv codes outside the state table.
const OtherState = "other"

// stateCodes maps NOAA climdiv state codes to postal abbreviations.
// Hawaii has no climdiv coverage.
var stateCodes = map[string]string{
	"001": "AL", "002": "AZ", "003": "AR", "004": "CA", "005": "CO",
	"006": "CT", "007": "DE", "008": "FL", "009": "GA", "010": "ID",
	"011": "IL", "012": "IN", "013": "IA", "014": "KS", "015": "KY",
	"016": "LA", "017": "ME", "018": "MD", "019": "MA", "020": "MI",
	"021": "MN", "022": "MS", "023": "MO", "024": "MT", "025": "NE",
	"026": "NV", "027": "NH", "028": "NJ", "029": "NM", "030": "NY",
	"031": "NC", "032": "ND", "033": "OH", "034": "OK", "035": "OR",
	"036": "PA", "037": "RI", "038": "SC", "039": "SD", "040": "TN",
	"041": "TX", "042": "UT", "043": "VT", "044": "VA", "045": "WA",
	"046": "WV", "047": "WI", "048": "WY", "050": "AK",
}

// StateAbbrev returns the postal abbreviation for a three-digit climdiv state
// code, or OtherState when the code is not a state.
func StateAbbrev(code string) string {
	if abbr, ok := stateCodes[code]; ok {
		return abbr
	}
	return OtherState
}

// YearRange is an inclusive range of years.
type YearRange struct {
	Min int
	Max int
}

// DefaultYearRange covers the years present in FPA FOD.
var DefaultYearRange = YearRange{Min: 1992, Max: 2015}

// Contains reports whether year lies inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// ClimateRecord is one line of a climdiv file: a state's twelve monthly values
// for one year.
type ClimateRecord struct {
	Code       string
	StateCode  string
	State      string
	Year       int
	Monthly    [12]float64
	YearlyMean float64
}

// Month returns the value for month m (1-12).
func (r ClimateRecord) Month(m int) (float64, bool) {
	if m < 1 || m > 12 {
		return 0, false
	}
	return r.Monthly[m-1], true
}

// ErrMalformedClimateLine is returned for lines that are not a code followed by
// twelve numbers.
var ErrMalformedClimateLine = errors.New("malformed climate line")

// ParseClimateLine parses one whitespace-delimited climdiv line.
func ParseClimateLine(line string) (ClimateRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 13 {
		return ClimateRecord{}, fmt.Errorf("%w: want 13 fields, got %d", ErrMalformedClimateLine, len(fields))
	}

	code := fields[0]
	if len(code) < 7 {
		return ClimateRecord{}, fmt.Errorf("%w: code %q too short", ErrMalformedClimateLine, code)
	}

	year, err := strconv.Atoi(code[len(code)-4:])
	if err != nil {
		return ClimateRecord{}, fmt.Errorf("%w: year in code %q: %w", ErrMalformedClimateLine, code, err)
	}

	rec := ClimateRecord{
		Code:      code,
		StateCode: code[:3],
		State:     StateAbbrev(code[:3]),
		Year:      year,
	}

	var sum float64
	for i, raw := range fields[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ClimateRecord{}, fmt.Errorf("%w: month %d: %w", ErrMalformedClimateLine, i+1, err)
		}
		rec.Monthly[i] = v
		sum += v
	}
	rec.YearlyMean = sum / 12

	return rec, nil
}

type stateYear struct {
	state string
	year  int
}

// ClimateTable holds the records of one variable in file order, indexed by
// (state, year). The first record for a key wins.
type ClimateTable struct {
	Variable Variable

	records []ClimateRecord
	index   map[stateYear]int
}

// NewClimateTable creates an empty table for v.
func NewClimateTable(v Variable) *ClimateTable {
	return &ClimateTable{
		Variable: v,
		index:    make(map[stateYear]int),
	}
}

// Add appends a record. Duplicate (state, year) keys are kept in the row list
// but lookups keep returning the first one.
func (t *ClimateTable) Add(rec ClimateRecord) {
	t.records = append(t.records, rec)
	key := stateYear{state: rec.State, year: rec.Year}
	if _, ok := t.index[key]; !ok {
		t.index[key] = len(t.records) - 1
	}
}

// Lookup returns the first record matching state and year.
func (t *ClimateTable) Lookup(state string, year int) (ClimateRecord, bool) {
	i, ok := t.index[stateYear{state: state, year: year}]
	if !ok {
		return ClimateRecord{}, false
	}
	return t.records[i], true
}

// Len returns the number of records, duplicates included.
func (t *ClimateTable) Len() int { return len(t.records) }

// Records returns the records in file order. Callers must not modify them.
func (t *ClimateTable) Records() []ClimateRecord { return t.records }

// ClimateSet is the read-only collection of tables used by the joiner.
type ClimateSet map[Variable]*ClimateTable
