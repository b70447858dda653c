package core

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/signalsfoundry/alert-correlator/catalog"
	"github.com/signalsfoundry/alert-correlator/model"
)

// CatalogSummary is a small summary of what was loaded from JSON. Mainly
// useful for logging from main().
type CatalogSummary struct {
	Indices []int
}

// internal JSON shapes – kept unexported so we're free to evolve them.
// Required numeric fields are pointers so a missing field is detectable and
// fails fast instead of silently becoming zero.
type alertCatalogJSON struct {
	Alerts []alertJSON `json:"alerts"`
}

type alertJSON struct {
	ID          string   `json:"id"`
	Index       *int     `json:"index"`
	RA          *float64 `json:"ra"`
	Dec         *float64 `json:"dec"`
	RAErrPlus   *float64 `json:"ra_err_plus"`
	RAErrMinus  *float64 `json:"ra_err_minus"`
	DecErrPlus  *float64 `json:"dec_err_plus"`
	DecErrMinus *float64 `json:"dec_err_minus"`
}

// LoadAlertCatalog reads a JSON alert catalog from r and populates cat.
// Any structural, validation, or duplicate-index error aborts the load.
func LoadAlertCatalog(cat *catalog.Catalog, r io.Reader) (*CatalogSummary, error) {
	if cat == nil {
		return nil, fmt.Errorf("LoadAlertCatalog: catalog is nil")
	}

	var payload alertCatalogJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadAlertCatalog: decode failed: %w", err)
	}

	summary := &CatalogSummary{
		Indices: make([]int, 0, len(payload.Alerts)),
	}

	for i, ja := range payload.Alerts {
		a, err := ja.toAlert()
		if err != nil {
			return nil, fmt.Errorf("LoadAlertCatalog: alerts[%d]: %w", i, err)
		}
		if err := cat.Add(a); err != nil {
			return nil, fmt.Errorf("LoadAlertCatalog: alerts[%d]: %w", i, err)
		}
		summary.Indices = append(summary.Indices, a.Index)
	}

	return summary, nil
}

func (ja *alertJSON) toAlert() (*model.Alert, error) {
	required := []struct {
		name string
		ok   bool
	}{
		{"index", ja.Index != nil},
		{"ra", ja.RA != nil},
		{"dec", ja.Dec != nil},
		{"ra_err_plus", ja.RAErrPlus != nil},
		{"ra_err_minus", ja.RAErrMinus != nil},
		{"dec_err_plus", ja.DecErrPlus != nil},
		{"dec_err_minus", ja.DecErrMinus != nil},
	}
	for _, f := range required {
		if !f.ok {
			return nil, fmt.Errorf("missing required field %q", f.name)
		}
	}

	return &model.Alert{
		ID:          ja.ID,
		Index:       *ja.Index,
		RA:          *ja.RA,
		Dec:         *ja.Dec,
		RAErrPlus:   *ja.RAErrPlus,
		RAErrMinus:  *ja.RAErrMinus,
		DecErrPlus:  *ja.DecErrPlus,
		DecErrMinus: *ja.DecErrMinus,
	}, nil
}
