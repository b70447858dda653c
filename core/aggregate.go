package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/alert-correlator/model"
)

var (
	ErrUnknownIndex = errors.New("graph references alert index missing from catalog")
	ErrZeroSigma    = errors.New("alert has a non-positive symmetrized uncertainty")
)

// GroupPosition is the combined solution for one resolved multiplet: an
// inverse-variance weighted mean position and the pooled per-axis sigma.
type GroupPosition struct {
	RA  float64
	Dec float64

	SigmaRA  float64
	SigmaDec float64
}

// Aggregate computes a GroupPosition for every non-empty group in the
// resolved graph, keyed by the group's representative alert index. Groups
// with an empty member set produce no entry.
//
// Each group pools the representative plus its members. The combined
// position is the weighted circular mean per axis, with weights 1/sigma²
// over the symmetrized per-alert errors, reduced into [0, 360). The combined
// sigma per axis is 1/sqrt(sum(1/sigma²)).
func Aggregate(resolved Graph, alerts []model.Alert) (map[int]GroupPosition, error) {
	byIndex := make(map[int]*model.Alert, len(alerts))
	for i := range alerts {
		byIndex[alerts[i].Index] = &alerts[i]
	}

	out := make(map[int]GroupPosition)
	for rep, members := range resolved {
		if len(members) == 0 {
			continue
		}

		group := make([]*model.Alert, 0, len(members)+1)
		repAlert, ok := byIndex[rep]
		if !ok {
			return nil, fmt.Errorf("aggregate: alert %d: %w", rep, ErrUnknownIndex)
		}
		group = append(group, repAlert)
		for _, m := range members {
			a, ok := byIndex[m]
			if !ok {
				return nil, fmt.Errorf("aggregate: alert %d: %w", m, ErrUnknownIndex)
			}
			group = append(group, a)
		}

		pos, err := weightedPosition(group)
		if err != nil {
			return nil, fmt.Errorf("aggregate: group %d: %w", rep, err)
		}
		out[rep] = pos
	}
	return out, nil
}

// AggregateByThreshold applies Aggregate to graphs that were pre-filtered by
// an external threshold (an area or significance cut), fanning out over each
// threshold key. Thresholds whose graph yields no groups are omitted from
// the result.
func AggregateByThreshold(byThreshold map[float64]Graph, alerts []model.Alert) (map[float64]map[int]GroupPosition, error) {
	out := make(map[float64]map[int]GroupPosition)
	for threshold, g := range byThreshold {
		positions, err := Aggregate(g, alerts)
		if err != nil {
			return nil, fmt.Errorf("threshold %g: %w", threshold, err)
		}
		if len(positions) == 0 {
			continue
		}
		out[threshold] = positions
	}
	return out, nil
}

func weightedPosition(group []*model.Alert) (GroupPosition, error) {
	ras := make([]float64, len(group))
	decs := make([]float64, len(group))
	wRA := make([]float64, len(group))
	wDec := make([]float64, len(group))

	var invVarRA, invVarDec float64
	for i, a := range group {
		sigRA, sigDec := a.SigmaRA(), a.SigmaDec()
		if sigRA <= 0 || sigDec <= 0 {
			return GroupPosition{}, fmt.Errorf("alert %d: %w", a.Index, ErrZeroSigma)
		}
		// Circular means work in radians; weights are inverse variances.
		ras[i] = a.RA * degToRad
		decs[i] = a.Dec * degToRad
		wRA[i] = 1 / (sigRA * sigRA)
		wDec[i] = 1 / (sigDec * sigDec)
		invVarRA += wRA[i]
		invVarDec += wDec[i]
	}

	// RA lands in [0, 360); Dec keeps its sign so southern-hemisphere
	// groups come back as negative declinations, not values near 360.
	dec := posMod(stat.CircularMean(decs, wDec)/degToRad, 360)
	if dec >= 180 {
		dec -= 360
	}

	return GroupPosition{
		RA:       posMod(stat.CircularMean(ras, wRA)/degToRad, 360),
		Dec:      dec,
		SigmaRA:  1 / math.Sqrt(invVarRA),
		SigmaDec: 1 / math.Sqrt(invVarDec),
	}, nil
}
