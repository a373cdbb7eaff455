package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ClimateSentinel fills every climate column of a fire in an excluded state.
const ClimateSentinel = -99.99

// excludedStates have no climdiv coverage.
var excludedStates = []string{"PR", "HI", "DC"}

// ExcludedStates returns the states whose fires receive ClimateSentinel.
func ExcludedStates() []string {
	return slices.Clone(excludedStates)
}

// IsExcludedState reports whether fires in state receive ClimateSentinel
// instead of a lookup.
func IsExcludedState(state string) bool {
	return slices.Contains(excludedStates, state)
}

// ErrClimateNotFound is returned when a non-excluded fire has no climate row
// for its state and year.
var ErrClimateNotFound = errors.New("climate record not found")

// JoinClimate derives DATE, MONTH and the six climate columns for a fire.
// A missing table or row for a non-excluded state is an error; the caller
// decides whether that is fatal.
func JoinClimate(f FireRecord, set ClimateSet) (ClimateFeatures, error) {
	discovered := f.DiscoveredAt()
	out := ClimateFeatures{
		Date:  discovered.Format(dateLayout),
		Month: int(discovered.Month()),
	}

	if IsExcludedState(f.State) {
		out.TmpYearly, out.PcpYearly, out.PdsiYearly = ClimateSentinel, ClimateSentinel, ClimateSentinel
		out.TmpMonthly, out.PcpMonthly, out.PdsiMonthly = ClimateSentinel, ClimateSentinel, ClimateSentinel
		return out, nil
	}

	for _, v := range Variables {
		yearly, monthly, err := lookupValues(set, v, f.State, f.FireYear, out.Month)
		if err != nil {
			return ClimateFeatures{}, err
		}
		switch v {
		case Temperature:
			out.TmpYearly, out.TmpMonthly = yearly, monthly
		case Precipitation:
			out.PcpYearly, out.PcpMonthly = yearly, monthly
		case DroughtIndex:
			out.PdsiYearly, out.PdsiMonthly = yearly, monthly
		}
	}
	return out, nil
}

func lookupValues(set ClimateSet, v Variable, state string, year, month int) (float64, float64, error) {
	table, ok := set[v]
	if !ok || table == nil {
		return 0, 0, fmt.Errorf("%w: no %s table loaded", ErrClimateNotFound, v)
	}
	rec, ok := table.Lookup(state, year)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s state=%s year=%d", ErrClimateNotFound, v, state, year)
	}
	monthly, _ := rec.Month(month)
	return rec.YearlyMean, monthly, nil
}
