package domain

import (
	"math"
	"sort"
)

const (
	// NeighborRadiusDeg bounds |Δlatitude| and |Δlongitude| (exclusive).
	NeighborRadiusDeg = 0.5
	// NeighborWindowDays bounds |Δdate| in days (exclusive).
	NeighborWindowDays = 183
)

// NeighborPoint is the part of a fire the neighborhood aggregate reads.
type NeighborPoint struct {
	Latitude   float64
	Longitude  float64
	Day        int64 // discovery date, days since 1970-01-01
	HourToCont *int64
}

type gridCell struct {
	lat int64
	lon int64
}

// NeighborIndex buckets points into NeighborRadiusDeg cells, each sorted by day,
// so a query only scans the 3x3 block of cells around a point inside its date
// window. Any pair closer than the radius lies in adjacent cells.
type NeighborIndex struct {
	points []NeighborPoint
	cells  map[gridCell][]int
}

// NewNeighborIndex builds an index over points. The slice is retained and must
// not be modified afterwards.
func NewNeighborIndex(points []NeighborPoint) *NeighborIndex {
	ix := &NeighborIndex{
		points: points,
		cells:  make(map[gridCell][]int),
	}
	for i, p := range points {
		c := cellOf(p)
		ix.cells[c] = append(ix.cells[c], i)
	}
	for _, members := range ix.cells {
		sort.SliceStable(members, func(a, b int) bool {
			return points[members[a]].Day < points[members[b]].Day
		})
	}
	return ix
}

func cellOf(p NeighborPoint) gridCell {
	return gridCell{
		lat: int64(math.Floor(p.Latitude / NeighborRadiusDeg)),
		lon: int64(math.Floor(p.Longitude / NeighborRadiusDeg)),
	}
}

// Len returns the number of indexed points.
func (ix *NeighborIndex) Len() int { return len(ix.points) }

// NearbyHourToCont returns the mean HOUR_TO_CONT of the neighbors of point i,
// or nil when no neighbor has a value.
//
// A candidate with exactly the same latitude is skipped. This also excludes
// point i itself.
func (ix *NeighborIndex) NearbyHourToCont(i int) *float64 {
	p := ix.points[i]
	c := cellOf(p)

	var sum, n int64
	for dLat := int64(-1); dLat <= 1; dLat++ {
		for dLon := int64(-1); dLon <= 1; dLon++ {
			members := ix.cells[gridCell{lat: c.lat + dLat, lon: c.lon + dLon}]
			start := sort.Search(len(members), func(k int) bool {
				return ix.points[members[k]].Day > p.Day-NeighborWindowDays
			})
			for _, j := range members[start:] {
				q := ix.points[j]
				if q.Day >= p.Day+NeighborWindowDays {
					break
				}
				if !isNeighbor(p, q) || q.HourToCont == nil {
					continue
				}
				sum += *q.HourToCont
				n++
			}
		}
	}

	if n == 0 {
		return nil
	}
	mean := float64(sum) / float64(n)
	return &mean
}

func isNeighbor(p, q NeighborPoint) bool {
	dLat := q.Latitude - p.Latitude
	if dLat == 0 {
		return false
	}
	return math.Abs(dLat) < NeighborRadiusDeg &&
		math.Abs(q.Longitude-p.Longitude) < NeighborRadiusDeg &&
		absInt(q.Day-p.Day) < NeighborWindowDays
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
