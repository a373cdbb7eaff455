package domain

import "math"

// round rounds half to even.
func round(v float64) float64 {
	return math.RoundToEven(v)
}

// ContainmentFor computes DAY_TO_CONT and HOUR_TO_CONT:
//
//	day  = round(CONT_DATE - DISCOVERY_DATE)
//	hour = round((24 - DISCOVERY_TIME) + (day - 1)*24 + CONT_TIME)
//
// The hour formula is rounded once, on the composite. A blank CONT_DATE leaves
// both nil; a blank time leaves hour nil.
func ContainmentFor(f FireRecord) ContainmentFeatures {
	var out ContainmentFeatures
	if f.ContDate == nil {
		return out
	}

	day := int64(round(*f.ContDate - f.DiscoveryDate))
	out.DayToCont = &day

	if f.DiscoveryTime == nil || f.ContTime == nil {
		return out
	}
	hour := int64(round((24 - *f.DiscoveryTime) + float64(day-1)*24 + *f.ContTime))
	out.HourToCont = &hour
	return out
}

// NearbyDayToCont converts a neighborhood hour mean into days.
func NearbyDayToCont(nearbyHours *float64) *int64 {
	if nearbyHours == nil {
		return nil
	}
	d := int64(round(*nearbyHours / 24))
	return &d
}
