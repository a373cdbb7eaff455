// Command validate checks a finished feature table against the climate files
// it was built from. It reads the same environment as the ETL, so a run is:
//
//	go run ./cmd/etl && go run ./cmd/validate
package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/couchcryptid/wildfire-climate-etl/internal/adapter/noaa"
	"github.com/couchcryptid/wildfire-climate-etl/internal/config"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const tolerance = 1e-9

var climateColumns = []string{
	"tmp_yearly", "pcp_yearly", "pdsi_yearly",
	"tmp_monthly", "pcp_monthly", "pdsi_monthly",
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if code := run(cfg, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config, out io.Writer) int {
	fmt.Fprintln(out, "=== Wildfire Feature Validation ===")
	fmt.Fprintln(out)

	df, err := loadFeatures(cfg.OutputPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load features: %v\n", err)
		return 1
	}

	set, err := loadClimate(cfg)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load climate: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSentinels(df),
		validateClimateJoin(df, set),
		validateHourToCont(df),
		validateNearby(df),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d fires\n", df.Nrow())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// loadFeatures reads the feature table with every column as a string so
// blank cells stay distinguishable from zero.
func loadFeatures(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, df.Err)
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no data rows in %s", path)
	}
	return df, nil
}

func loadClimate(cfg *config.Config) (domain.ClimateSet, error) {
	loader := noaa.NewLoader(domain.YearRange{Min: cfg.MinYear, Max: cfg.MaxYear}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	paths := map[domain.Variable]string{
		domain.Temperature:   cfg.TemperaturePath,
		domain.Precipitation: cfg.PrecipitationPath,
		domain.DroughtIndex:  cfg.DroughtPath,
	}
	set := make(domain.ClimateSet, len(paths))
	for _, v := range domain.Variables {
		table, err := loader.LoadFile(paths[v], v)
		if err != nil {
			return nil, err
		}
		set[v] = table
	}
	return set, nil
}

// cell returns the value at row i of col, or ok=false when blank.
func cell(df dataframe.DataFrame, col string, i int) (float64, bool, error) {
	raw := df.Col(col).Elem(i).String()
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s=%q: %w", col, raw, err)
	}
	return v, true, nil
}

// ── Phase 1: Sentinels ──
// Fires in states without climate coverage carry the sentinel in all six columns.

func validateSentinels(df dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 1: Excluded states use sentinel"}

	var n int
	for _, state := range df.Col("STATE").Records() {
		if domain.IsExcludedState(state) {
			n++
		}
	}
	if n == 0 {
		return p
	}

	excluded := df.Filter(dataframe.F{Colname: "STATE", Comparator: series.In, Comparando: domain.ExcludedStates()})
	if excluded.Err != nil {
		p.errorf("filter excluded states: %v", excluded.Err)
		return p
	}
	for i := range excluded.Nrow() {
		for _, col := range climateColumns {
			v, ok, err := cell(excluded, col, i)
			switch {
			case err != nil:
				p.errorf("excluded row %d: %v", i+1, err)
			case !ok || v != domain.ClimateSentinel:
				p.errorf("excluded row %d (%s): %s=%v, want %v", i+1, excluded.Col("STATE").Elem(i), col, v, domain.ClimateSentinel)
			}
		}
	}
	return p
}

// ── Phase 2: Climate join ──
// Covered fires carry the yearly mean and discovery-month value of their
// state's climate row.

func validateClimateJoin(df dataframe.DataFrame, set domain.ClimateSet) *phase {
	p := &phase{name: "Phase 2: Climate values match tables"}

	states := df.Col("STATE").Records()
	for i, state := range states {
		if domain.IsExcludedState(state) {
			continue
		}
		year, _, err := cell(df, "FIRE_YEAR", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		month, _, err := cell(df, "MONTH", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}

		for _, v := range domain.Variables {
			rec, ok := set[v].Lookup(state, int(year))
			if !ok {
				p.errorf("row %d: no %s row for %s %d", i+1, v, state, int(year))
				continue
			}
			checkValue(p, df, i, string(v)+"_yearly", rec.YearlyMean)
			want, _ := rec.Month(int(month))
			checkValue(p, df, i, string(v)+"_monthly", want)
		}
	}
	return p
}

func checkValue(p *phase, df dataframe.DataFrame, i int, col string, want float64) {
	got, ok, err := cell(df, col, i)
	switch {
	case err != nil:
		p.errorf("row %d: %v", i+1, err)
	case !ok:
		p.errorf("row %d: %s is blank", i+1, col)
	case math.Abs(got-want) > tolerance:
		p.errorf("row %d: %s=%v, want %v", i+1, col, got, want)
	}
}

// ── Phase 3: Containment ──
// HOUR_TO_CONT is reproduced from DAY_TO_CONT and the two times.

func validateHourToCont(df dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 3: HOUR_TO_CONT reproducible"}

	for i := range df.Nrow() {
		day, hasDay, err := cell(df, "DAY_TO_CONT", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		hour, hasHour, err := cell(df, "HOUR_TO_CONT", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		if hasDay && day != math.Trunc(day) {
			p.errorf("row %d: DAY_TO_CONT=%v is not an integer", i+1, day)
		}
		if !hasHour {
			continue
		}
		if !hasDay {
			p.errorf("row %d: HOUR_TO_CONT set without DAY_TO_CONT", i+1)
			continue
		}

		discovery, okD, errD := cell(df, "DISCOVERY_TIME", i)
		cont, okC, errC := cell(df, "CONT_TIME", i)
		if errD != nil || errC != nil || !okD || !okC {
			p.errorf("row %d: HOUR_TO_CONT set without both times", i+1)
			continue
		}
		want := math.RoundToEven((24 - discovery) + (day-1)*24 + cont)
		if hour != want {
			p.errorf("row %d: HOUR_TO_CONT=%v, want %v", i+1, hour, want)
		}
	}
	return p
}

// ── Phase 4: Neighborhood ──
// NEARBY_DAY_TO_CONT is the day rounding of NEARBY_HOUR_TO_CONT.

func validateNearby(df dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 4: Neighborhood columns consistent"}

	for i := range df.Nrow() {
		hours, hasHours, err := cell(df, "NEARBY_HOUR_TO_CONT", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		days, hasDays, err := cell(df, "NEARBY_DAY_TO_CONT", i)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		if hasHours != hasDays {
			p.errorf("row %d: NEARBY_HOUR_TO_CONT and NEARBY_DAY_TO_CONT must be blank together", i+1)
			continue
		}
		if hasHours && days != math.RoundToEven(hours/24) {
			p.errorf("row %d: NEARBY_DAY_TO_CONT=%v, want %v", i+1, days, math.RoundToEven(hours/24))
		}
	}
	return p
}
