package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/signalsfoundry/alert-correlator/catalog"
	"github.com/signalsfoundry/alert-correlator/core"
	"github.com/signalsfoundry/alert-correlator/internal/logging"
	"github.com/signalsfoundry/alert-correlator/model"
)

// Server exposes the alert catalog and correlation results over HTTP. It is
// a thin layer: all geometry lives in core, all storage in catalog.
type Server struct {
	catalog    *catalog.Catalog
	correlator *core.Correlator
	log        logging.Logger
}

func NewServer(cat *catalog.Catalog, correlator *core.Correlator, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		catalog:    cat,
		correlator: correlator,
		log:        log,
	}
}

// Middleware is anything that wraps an http.Handler, e.g. the observability
// collector's request recorder.
type Middleware func(http.Handler) http.Handler

// Router builds the API route tree.
func (s *Server) Router(extra ...Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID(s.log))
	for _, mw := range extra {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts", s.handleAddAlerts)
		r.Get("/alerts/{index}", s.handleGetAlert)
		r.Post("/correlate", s.handleCorrelate)
	})
	return r
}

type alertResponse struct {
	ID          string  `json:"id,omitempty"`
	Index       int     `json:"index"`
	RA          float64 `json:"ra"`
	Dec         float64 `json:"dec"`
	RAErrPlus   float64 `json:"ra_err_plus"`
	RAErrMinus  float64 `json:"ra_err_minus"`
	DecErrPlus  float64 `json:"dec_err_plus"`
	DecErrMinus float64 `json:"dec_err_minus"`
}

type groupResponse struct {
	Index    int     `json:"index"`
	Members  []int   `json:"members"`
	RA       float64 `json:"ra"`
	Dec      float64 `json:"dec"`
	SigmaRA  float64 `json:"sigma_ra"`
	SigmaDec float64 `json:"sigma_dec"`
}

type correlateResponse struct {
	Alerts    int             `json:"alerts"`
	Conflicts int             `json:"conflicts"`
	Groups    []groupResponse `json:"groups"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.catalog.Snapshot()
	out := make([]alertResponse, len(alerts))
	for i := range alerts {
		out[i] = toAlertResponse(&alerts[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
		return
	}
	a, ok := s.catalog.Get(index)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "alert not found"})
		return
	}
	writeJSON(w, http.StatusOK, toAlertResponse(&a))
}

// handleAddAlerts ingests a catalog document, the same shape the batch
// loader reads from disk. The load is not transactional: alerts preceding
// the offending entry stay in the catalog, matching repeated-POST semantics.
func (s *Server) handleAddAlerts(w http.ResponseWriter, r *http.Request) {
	summary, err := core.LoadAlertCatalog(s.catalog, r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	log := logging.LoggerFromContext(r.Context(), s.log)
	log.Info(r.Context(), "alerts ingested", logging.Int("count", len(summary.Indices)))
	writeJSON(w, http.StatusCreated, map[string]any{"added": summary.Indices})
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	result, err := s.correlator.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrNonFiniteField) ||
			errors.Is(err, model.ErrNegativeMagnitude) ||
			errors.Is(err, model.ErrDecOutOfRange) ||
			errors.Is(err, core.ErrZeroSigma) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	groups := make([]groupResponse, 0, len(result.Positions))
	for index, pos := range result.Positions {
		groups = append(groups, groupResponse{
			Index:    index,
			Members:  result.Resolved[index],
			RA:       pos.RA,
			Dec:      pos.Dec,
			SigmaRA:  pos.SigmaRA,
			SigmaDec: pos.SigmaDec,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })

	writeJSON(w, http.StatusOK, correlateResponse{
		Alerts:    s.catalog.Len(),
		Conflicts: result.Conflicts,
		Groups:    groups,
	})
}

func toAlertResponse(a *model.Alert) alertResponse {
	return alertResponse{
		ID:          a.ID,
		Index:       a.Index,
		RA:          a.RA,
		Dec:         a.Dec,
		RAErrPlus:   a.RAErrPlus,
		RAErrMinus:  a.RAErrMinus,
		DecErrPlus:  a.DecErrPlus,
		DecErrMinus: a.DecErrMinus,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
