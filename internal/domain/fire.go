package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// FireRecord is one row of the FPA FOD fire table. Only the columns the
// enrichment needs are decoded; Raw keeps the full original row.
type FireRecord struct {
	State         string   `csv:"STATE" json:"state"`
	FireYear      int      `csv:"FIRE_YEAR" json:"fire_year"`
	DiscoveryDate float64  `csv:"DISCOVERY_DATE" json:"discovery_date"`
	DiscoveryTime *float64 `csv:"DISCOVERY_TIME" json:"discovery_time,omitempty"`
	ContDate      *float64 `csv:"CONT_DATE" json:"cont_date,omitempty"`
	ContTime      *float64 `csv:"CONT_TIME" json:"cont_time,omitempty"`
	Latitude      float64  `csv:"LATITUDE" json:"latitude"`
	Longitude     float64  `csv:"LONGITUDE" json:"longitude"`

	Raw []string `csv:"-" json:"-"`
}

// ClimateFeatures are the columns added by the climate join, in output order.
type ClimateFeatures struct {
	TmpYearly   float64 `csv:"tmp_yearly" json:"tmp_yearly"`
	PcpYearly   float64 `csv:"pcp_yearly" json:"pcp_yearly"`
	PdsiYearly  float64 `csv:"pdsi_yearly" json:"pdsi_yearly"`
	Date        string  `csv:"DATE" json:"date"`
	Month       int     `csv:"MONTH" json:"month"`
	TmpMonthly  float64 `csv:"tmp_monthly" json:"tmp_monthly"`
	PcpMonthly  float64 `csv:"pcp_monthly" json:"pcp_monthly"`
	PdsiMonthly float64 `csv:"pdsi_monthly" json:"pdsi_monthly"`
}

// ContainmentFeatures are the columns added by the containment annotator.
// Nil means the value could not be derived.
type ContainmentFeatures struct {
	DayToCont        *int64   `csv:"DAY_TO_CONT" json:"day_to_cont,omitempty"`
	HourToCont       *int64   `csv:"HOUR_TO_CONT" json:"hour_to_cont,omitempty"`
	NearbyHourToCont *float64 `csv:"NEARBY_HOUR_TO_CONT" json:"nearby_hour_to_cont,omitempty"`
	NearbyDayToCont  *int64   `csv:"NEARBY_DAY_TO_CONT" json:"nearby_day_to_cont,omitempty"`
}

// Features is the full set of derived columns.
type Features struct {
	ClimateFeatures
	ContainmentFeatures
}

// EnrichedFire is a fire record with its derived features.
type EnrichedFire struct {
	ID       string     `json:"id"`
	Fire     FireRecord `json:"fire"`
	Features Features   `json:"features"`
}

// julianUnixEpoch is the Julian day number of 1970-01-01 00:00 UTC.
const julianUnixEpoch = 2440587.5

// dateLayout is the DATE column format.
const dateLayout = "2006-01-02"

// JulianToTime converts a Julian day number to a UTC time, rounded to the second.
func JulianToTime(jd float64) time.Time {
	secs := math.Round((jd - julianUnixEpoch) * 86400)
	return time.Unix(int64(secs), 0).UTC()
}

// DiscoveredAt returns the discovery instant.
func (f FireRecord) DiscoveredAt() time.Time {
	return JulianToTime(f.DiscoveryDate)
}

// DiscoveryDay returns the discovery calendar date as days since 1970-01-01.
func (f FireRecord) DiscoveryDay() int64 {
	t := f.DiscoveredAt()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// FireID produces a deterministic ID from the fire's key fields so a replayed
// record publishes under the same key.
func FireID(f FireRecord) string {
	input := fmt.Sprintf("%s|%d|%.4f|%.4f|%.1f", f.State, f.FireYear, f.Latitude, f.Longitude, f.DiscoveryDate)
	hash := sha256.Sum256([]byte(input))
	return "fire-" + hex.EncodeToString(hash[:8])
}

// FireTable is the decoded fire CSV: its header and records in file order.
type FireTable struct {
	Header []string
	Fires  []FireRecord
}
