package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNonFiniteField    = errors.New("alert field is NaN or infinite")
	ErrNegativeMagnitude = errors.New("alert error magnitude is negative")
	ErrDecOutOfRange     = errors.New("alert declination outside [-90, 90]")
)

// Alert is a single observed event (e.g. a neutrino or gravitational-wave
// detection). RA and Dec are equatorial coordinates in degrees; RA wraps at
// 360. The four error fields are non-negative magnitudes of the asymmetric
// one-sided positional uncertainty, also in degrees.
//
// Index identifies the alert within a catalog. It is stable and unique but
// need not be contiguous.
type Alert struct {
	ID    string
	Index int

	RA  float64
	Dec float64

	RAErrPlus   float64
	RAErrMinus  float64
	DecErrPlus  float64
	DecErrMinus float64
}

// Validate rejects alerts the geometry pipeline cannot handle: non-finite
// values, negative error magnitudes, or a declination outside [-90, 90].
// Zero error magnitudes are accepted; the membership test treats a zero
// semi-axis as a degenerate quadrant rather than dividing by zero.
func (a *Alert) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"ra", a.RA},
		{"dec", a.Dec},
		{"ra_err_plus", a.RAErrPlus},
		{"ra_err_minus", a.RAErrMinus},
		{"dec_err_plus", a.DecErrPlus},
		{"dec_err_minus", a.DecErrMinus},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("alert %d: %s: %w", a.Index, f.name, ErrNonFiniteField)
		}
	}
	for _, f := range fields[2:] {
		if f.value < 0 {
			return fmt.Errorf("alert %d: %s=%g: %w", a.Index, f.name, f.value, ErrNegativeMagnitude)
		}
	}
	if a.Dec < -90 || a.Dec > 90 {
		return fmt.Errorf("alert %d: dec=%g: %w", a.Index, a.Dec, ErrDecOutOfRange)
	}
	return nil
}

// SigmaRA returns the symmetrized RA uncertainty, the mean of the plus and
// minus magnitudes. Used as the per-axis sigma when pooling positions.
func (a *Alert) SigmaRA() float64 {
	return (a.RAErrPlus + a.RAErrMinus) / 2
}

// SigmaDec returns the symmetrized Dec uncertainty.
func (a *Alert) SigmaDec() float64 {
	return (a.DecErrPlus + a.DecErrMinus) / 2
}
