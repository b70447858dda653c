package core

import (
	"math"

	"github.com/signalsfoundry/alert-correlator/model"
)

const degToRad = math.Pi / 180

// Point is an (RA, Dec) pair in degrees.
type Point struct {
	RA  float64
	Dec float64
}

// Ellipse is the quadrant-asymmetric error ellipse of a single alert,
// centered at (RA, Dec) in degrees. The bounds follow a signed convention:
// RAMin and DecMin hold the minus-side magnitudes negated, RAMax and DecMax
// the plus-side magnitudes. Each quadrant of the contour uses the semi-axis
// pair matching the sign of the offset, so the ellipse may be wider on one
// side of the center than the other.
type Ellipse struct {
	RA  float64
	Dec float64

	RAMin  float64 // <= 0
	RAMax  float64 // >= 0
	DecMin float64 // <= 0
	DecMax float64 // >= 0
}

// EllipseForAlert derives the error ellipse of an alert.
func EllipseForAlert(a *model.Alert) Ellipse {
	return Ellipse{
		RA:     a.RA,
		Dec:    a.Dec,
		RAMin:  -a.RAErrMinus,
		RAMax:  a.RAErrPlus,
		DecMin: -a.DecErrMinus,
		DecMax: a.DecErrPlus,
	}
}

// ContainsPoint reports whether p lies inside the closed quadrant ellipse.
//
// Offsets are taken relative to the center. When the ellipse reaches past
// 360° the RA offset is reduced with a non-negative modulo so points just
// past the wrap test positive; when it reaches below 0° the mirrored
// correction applies. A point is inside when it satisfies the contour
// inequality (dRA²/a²) + (dDec²/b²) <= 1 for the quadrant matching the sign
// of its offsets. Sign boundaries (offset exactly 0) belong to both adjacent
// quadrants. A zero semi-axis makes its quadrant degenerate: the quadrant
// contributes no interior region at all.
func (e Ellipse) ContainsPoint(p Point) bool {
	// Bounds are ordered defensively; callers may hand the pair in either
	// order as long as the minus side carries its minus sign.
	raMin, raMax := math.Min(e.RAMin, e.RAMax), math.Max(e.RAMin, e.RAMax)
	decMin, decMax := math.Min(e.DecMin, e.DecMax), math.Max(e.DecMin, e.DecMax)

	dra := p.RA - e.RA
	if e.RA+raMax >= 360 {
		dra = posMod(dra, 360)
	}
	if e.RA+raMin <= 0 {
		dra = -posMod(-dra, 360)
	}
	ddec := p.Dec - e.Dec

	if dra >= 0 && ddec >= 0 && onArc(dra, ddec, raMax, decMax) {
		return true
	}
	if dra >= 0 && ddec <= 0 && onArc(dra, ddec, raMax, decMin) {
		return true
	}
	if dra <= 0 && ddec <= 0 && onArc(dra, ddec, raMin, decMin) {
		return true
	}
	if dra <= 0 && ddec >= 0 && onArc(dra, ddec, raMin, decMax) {
		return true
	}
	return false
}

// Contains evaluates ContainsPoint for every point and returns the aligned
// boolean mask.
func (e Ellipse) Contains(points []Point) []bool {
	mask := make([]bool, len(points))
	for i, p := range points {
		mask[i] = e.ContainsPoint(p)
	}
	return mask
}

// onArc tests the contour inequality for one quadrant. The semi-axes a and b
// may be signed; only their magnitudes matter here since the quadrant
// classification already happened.
func onArc(dra, ddec, a, b float64) bool {
	if a == 0 || b == 0 {
		// Degenerate contour: no interior region for this quadrant.
		return false
	}
	if dra*dra > a*a || ddec*ddec > b*b {
		return false
	}
	return dra*dra/(a*a)+ddec*ddec/(b*b) <= 1
}

// posMod reduces x modulo m into [0, m), matching the mathematical (floored)
// modulo rather than Go's truncated math.Mod.
func posMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
