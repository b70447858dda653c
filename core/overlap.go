package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/alert-correlator/model"
)

// Graph maps an alert index to the indices of alerts whose uncertainty
// ellipse boundary touches that alert's ellipse. Member slices are sorted
// ascending and never contain the key itself. Every probed alert has an
// entry, possibly empty.
type Graph map[int][]int

// Has reports whether member belongs to the touching set of index.
func (g Graph) Has(index, member int) bool {
	for _, m := range g[index] {
		if m == member {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for k, members := range g {
		out[k] = append([]int{}, members...)
	}
	return out
}

// defaultSamplesPerQuadrant is the number of parametric boundary points
// generated per quadrant arc when probing for overlap.
const defaultSamplesPerQuadrant = 20

// quadrantArcs describes the four boundary arcs of a quadrant ellipse: the
// start angle of the arc and which error magnitudes serve as semi-axes on
// it. The pairs follow the sign of cos/sin over each angle range.
var quadrantArcs = [4]struct {
	thetaDeg float64
	raErr    func(*model.Alert) float64
	decErr   func(*model.Alert) float64
}{
	{0, func(a *model.Alert) float64 { return a.RAErrPlus }, func(a *model.Alert) float64 { return a.DecErrPlus }},
	{90, func(a *model.Alert) float64 { return a.RAErrMinus }, func(a *model.Alert) float64 { return a.DecErrPlus }},
	{180, func(a *model.Alert) float64 { return a.RAErrMinus }, func(a *model.Alert) float64 { return a.DecErrMinus }},
	{270, func(a *model.Alert) float64 { return a.RAErrPlus }, func(a *model.Alert) float64 { return a.DecErrMinus }},
}

// OverlapService builds the multiplet graph: for every probe alert it tests
// which other alerts' ellipse boundaries reach into the probe's own ellipse.
type OverlapService struct {
	// SamplesPerQuadrant controls how many evenly spaced boundary points
	// are generated on each quadrant arc. Endpoints are included, so
	// adjacent arcs share their corner points.
	SamplesPerQuadrant int
}

func NewOverlapService() *OverlapService {
	return &OverlapService{
		SamplesPerQuadrant: defaultSamplesPerQuadrant,
	}
}

// BuildGraph computes the touching relation over the given alerts.
//
// The relation is computed independently per probe, so floating-point
// boundary effects can in principle yield asymmetric entries; they are
// preserved as computed rather than symmetrized. All alerts are validated
// up front so bad geometry fails before any probing starts.
func (s *OverlapService) BuildGraph(alerts []model.Alert) (Graph, error) {
	for i := range alerts {
		if err := alerts[i].Validate(); err != nil {
			return nil, fmt.Errorf("overlap: %w", err)
		}
	}

	n := s.SamplesPerQuadrant
	if n < 2 {
		n = defaultSamplesPerQuadrant
	}

	graph := make(Graph, len(alerts))
	for pi := range alerts {
		probe := &alerts[pi]
		ell := EllipseForAlert(probe)

		touching := make(map[int]bool)
		for _, arc := range quadrantArcs {
			for ci := range alerts {
				cand := &alerts[ci]
				if touching[cand.Index] {
					continue
				}
				if boundaryTouches(ell, cand, arc.thetaDeg, arc.raErr(cand), arc.decErr(cand), n) {
					touching[cand.Index] = true
				}
			}
		}
		delete(touching, probe.Index)

		members := make([]int, 0, len(touching))
		for idx := range touching {
			members = append(members, idx)
		}
		sort.Ints(members)
		graph[probe.Index] = members
	}
	return graph, nil
}

// boundaryTouches samples n points on one quadrant arc of cand's ellipse and
// reports whether any of them falls inside ell.
func boundaryTouches(ell Ellipse, cand *model.Alert, thetaDeg, raErr, decErr float64, n int) bool {
	step := 90 / float64(n-1)
	for k := 0; k < n; k++ {
		t := (thetaDeg + step*float64(k)) * degToRad
		sin, cos := math.Sincos(t)
		p := Point{
			RA:  raErr*cos + cand.RA,
			Dec: decErr*sin + cand.Dec,
		}
		if ell.ContainsPoint(p) {
			return true
		}
	}
	return false
}
