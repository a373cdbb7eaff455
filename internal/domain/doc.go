// Package domain models wildfire incidents and the NOAA climate divisional data
// joined onto them.
//
// # Data Sources
//
// Fire records come from the US Forest Service Fire Program Analysis fire-occurrence
// database (FPA FOD), exported as CSV. Climate indices come from the NOAA NCEI
// climate divisional dataset ("climdiv"), available at
// https://www.ncei.noaa.gov/pub/data/cirs/climdiv/. The state-level files used here
// are climdiv-tmpcst (temperature), climdiv-pcpnst (precipitation) and
// climdiv-pdsist (Palmer Drought Severity Index).
//
// # climdiv Conventions
//
// Each line holds a code token followed by twelve monthly values:
//
//	0010021992  44.50  49.40  55.30 ...
//
// The first three characters of the code are the NOAA state code (001 = AL,
// 004 = CA, 050 = AK; codes above 050 are regions and national aggregates). The
// last four characters are the year. Columns are separated by runs of spaces.
//
// Codes that are not in the state table map to [OtherState].
//
// # FPA FOD Conventions
//
// DISCOVERY_DATE and CONT_DATE are Julian day numbers (2453403.5 = 2005-02-02
// 00:00 UTC). DISCOVERY_TIME and CONT_TIME are used as-is in the containment
// formula; see [ContainmentFor].
//
// States without climdiv coverage (PR, HI, DC) get [ClimateSentinel] in every
// climate column.
//
// # Neighborhood
//
// A fire's neighbors are other fires within 0.5 degrees of latitude and
// longitude and fewer than 183 days apart. A candidate sharing the fire's
// exact latitude is never a neighbor. See [NeighborIndex].
package domain
