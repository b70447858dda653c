package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/signalsfoundry/alert-correlator/catalog"
	"github.com/signalsfoundry/alert-correlator/core"
	"github.com/signalsfoundry/alert-correlator/internal/logging"
)

func main() {
	catalogPath := flag.String("catalog", "-", "path to a JSON alert catalog, or - for stdin")
	samples := flag.Int("samples", 0, "boundary points per quadrant arc (0 = default)")
	format := flag.String("format", "text", "output format: text or json")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	in, err := openCatalog(*catalogPath)
	if err != nil {
		log.Error(ctx, "failed to open catalog", logging.String("path", *catalogPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer in.Close()

	cat := catalog.New()
	summary, err := core.LoadAlertCatalog(cat, in)
	if err != nil {
		log.Error(ctx, "failed to load catalog", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "catalog loaded", logging.Int("alerts", len(summary.Indices)))

	correlator := core.NewCorrelator(cat, log)
	if *samples > 0 {
		correlator.Overlap.SamplesPerQuadrant = *samples
	}

	result, err := correlator.Run(ctx)
	if err != nil {
		log.Error(ctx, "correlation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if err := writeResults(os.Stdout, *format, result); err != nil {
		log.Error(ctx, "failed to write results", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func openCatalog(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type outputGroup struct {
	Index    int     `json:"index"`
	Members  []int   `json:"members"`
	RA       float64 `json:"ra"`
	Dec      float64 `json:"dec"`
	SigmaRA  float64 `json:"sigma_ra"`
	SigmaDec float64 `json:"sigma_dec"`
}

// writeResults renders the non-empty groups of a correlation run, ordered by
// representative index.
func writeResults(w io.Writer, format string, result *core.Result) error {
	groups := make([]outputGroup, 0, len(result.Positions))
	for index, pos := range result.Positions {
		groups = append(groups, outputGroup{
			Index:    index,
			Members:  result.Resolved[index],
			RA:       pos.RA,
			Dec:      pos.Dec,
			SigmaRA:  pos.SigmaRA,
			SigmaDec: pos.SigmaDec,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })

	switch format {
	case "json":
		data, err := json.MarshalIndent(groups, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text":
		if _, err := fmt.Fprintf(w, "%-8s %-20s %12s %12s %12s %12s\n",
			"GROUP", "MEMBERS", "RA", "DEC", "SIGMA_RA", "SIGMA_DEC"); err != nil {
			return err
		}
		for _, g := range groups {
			if _, err := fmt.Fprintf(w, "%-8d %-20v %12.6f %12.6f %12.6f %12.6f\n",
				g.Index, g.Members, g.RA, g.Dec, g.SigmaRA, g.SigmaDec); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n%d group(s), %d conflict(s) resolved\n",
			len(groups), result.Conflicts); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
