package model

import (
	"errors"
	"math"
	"testing"
)

func validAlert() Alert {
	return Alert{
		Index: 1, RA: 120.5, Dec: -30.25,
		RAErrPlus: 0.75, RAErrMinus: 0.25, DecErrPlus: 0.5, DecErrMinus: 0.25,
	}
}

func TestValidateAccepts(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Alert)
	}{
		{"typical", func(a *Alert) {}},
		{"zero errors", func(a *Alert) {
			a.RAErrPlus, a.RAErrMinus, a.DecErrPlus, a.DecErrMinus = 0, 0, 0, 0
		}},
		{"dec at north pole", func(a *Alert) { a.Dec = 90 }},
		{"dec at south pole", func(a *Alert) { a.Dec = -90 }},
		{"ra outside 0..360", func(a *Alert) { a.RA = 450 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAlert()
			tc.mutate(&a)
			if err := a.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Alert)
		want   error
	}{
		{"NaN ra", func(a *Alert) { a.RA = math.NaN() }, ErrNonFiniteField},
		{"infinite dec", func(a *Alert) { a.Dec = math.Inf(1) }, ErrNonFiniteField},
		{"NaN error magnitude", func(a *Alert) { a.DecErrPlus = math.NaN() }, ErrNonFiniteField},
		{"negative ra error", func(a *Alert) { a.RAErrMinus = -0.1 }, ErrNegativeMagnitude},
		{"negative dec error", func(a *Alert) { a.DecErrPlus = -1 }, ErrNegativeMagnitude},
		{"dec above range", func(a *Alert) { a.Dec = 90.01 }, ErrDecOutOfRange},
		{"dec below range", func(a *Alert) { a.Dec = -91 }, ErrDecOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAlert()
			tc.mutate(&a)
			if err := a.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSymmetrizedSigmas(t *testing.T) {
	a := validAlert()
	if got := a.SigmaRA(); got != 0.5 {
		t.Errorf("SigmaRA = %v, want 0.5", got)
	}
	if got := a.SigmaDec(); got != 0.375 {
		t.Errorf("SigmaDec = %v, want 0.375", got)
	}
}
