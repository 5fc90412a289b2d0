// Package chart computes pie and progress geometry for budget dashboards.
// Output is plain numbers and SVG path data; drawing is left to clients.
package chart

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"smartsplit/internal/allocation"
	"smartsplit/internal/core"
)

// DefaultPalette is cycled through for slices without their own color.
var DefaultPalette = []string{
	"#F59E0B",
	"#06B6D4",
	"#10B981",
	"#EF4444",
	"#4F46E5",
	"#8B5CF6",
	"#F97316",
	"#84CC16",
}

// UnspentLabel names the slice for income not assigned to any group.
const UnspentLabel = "Unspent"

type (
	Datum struct {
		ID    string  `json:"id"`
		Label string  `json:"label"`
		Value float64 `json:"value"`
		Color string  `json:"color,omitempty"`
	}

	Slice struct {
		Datum      Datum   `json:"datum"`
		StartAngle float64 `json:"start_angle"`
		EndAngle   float64 `json:"end_angle"`
		Percent    float64 `json:"percent"`
		Color      string  `json:"color"`
	}

	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
)

// PieSlices lays data out clockwise from 12 o'clock, largest value first.
// Negative values take no room. padAngleDeg is shared between slices in
// proportion to their size, half taken from each end.
func PieSlices(data []Datum, padAngleDeg float64) []Slice {
	sorted := make([]Datum, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	var total float64
	for _, d := range sorted {
		total += math.Max(0, d.Value)
	}

	slices := make([]Slice, 0, len(sorted))
	start := 0.0
	for i, d := range sorted {
		frac := 0.0
		if total != 0 {
			frac = math.Max(0, d.Value) / total
		}
		angle := frac * 360
		end := start + angle
		pad := padAngleDeg * (angle / 360)

		color := d.Color
		if color == "" {
			color = DefaultPalette[i%len(DefaultPalette)]
		}
		slices = append(slices, Slice{
			Datum:      d,
			StartAngle: start + pad/2,
			EndAngle:   end - pad/2,
			Percent:    frac * 100,
			Color:      color,
		})
		start = end
	}
	return slices
}

// PolarToCartesian converts an angle in degrees, measured clockwise from
// 12 o'clock, to a point on a circle.
func PolarToCartesian(cx, cy, r, angleDeg float64) Point {
	rad := (angleDeg - 90) * math.Pi / 180
	return Point{
		X: cx + r*math.Cos(rad),
		Y: cy + r*math.Sin(rad),
	}
}

// ArcPath returns SVG path data for a pie slice, or a donut segment when
// rInner > 0.
func ArcPath(cx, cy, rOuter, rInner, startAngle, endAngle float64) string {
	// A single SVG arc cannot close on itself, so a full circle is two arcs.
	if math.Abs(endAngle-startAngle) >= 360-1e-6 {
		top := join("M", num(cx), num(cy-rOuter),
			"A", num(rOuter), num(rOuter), "0 1 1", num(cx-0.0001), num(cy-rOuter))
		if rInner <= 0 {
			return top + " Z"
		}
		inner := join("M", num(cx), num(cy-rInner),
			"A", num(rInner), num(rInner), "0 1 0", num(cx-0.0001), num(cy-rInner))
		return top + " " + inner + " Z"
	}

	startOuter := PolarToCartesian(cx, cy, rOuter, endAngle)
	endOuter := PolarToCartesian(cx, cy, rOuter, startAngle)
	startInner := PolarToCartesian(cx, cy, rInner, startAngle)
	endInner := PolarToCartesian(cx, cy, rInner, endAngle)

	largeArc := "0"
	if endAngle-startAngle > 180 {
		largeArc = "1"
	}

	parts := []string{
		join("M", num(startOuter.X), num(startOuter.Y)),
		join("A", num(rOuter), num(rOuter), "0", largeArc, "0", num(endOuter.X), num(endOuter.Y)),
		join("L", num(startInner.X), num(startInner.Y)),
	}
	if rInner > 0 {
		parts = append(parts, join("A", num(rInner), num(rInner), "0", largeArc, "1", num(endInner.X), num(endInner.Y)))
	} else {
		parts = append(parts, join("L", num(cx), num(cy)))
	}
	return join(append(parts, "Z")...)
}

// SlicesFromGroups turns allocation groups into pie data. Income left after
// all groups becomes an extra Unspent slice.
func SlicesFromGroups(groups []core.AllocationGroup, income float64) []Datum {
	data := make([]Datum, 0, len(groups)+1)
	for i, g := range groups {
		data = append(data, Datum{
			ID:    strconv.Itoa(i),
			Label: g.AllocationType,
			Value: g.AllocationTotal,
		})
	}
	if rest := income - allocation.TotalAllocation(groups); rest > 0 {
		data = append(data, Datum{
			ID:    "unspent",
			Label: UnspentLabel,
			Value: rest,
		})
	}
	return data
}

func join(parts ...string) string {
	return strings.Join(parts, " ")
}

// num prints coordinates with at most four decimals.
func num(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
