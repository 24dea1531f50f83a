// Package telemetry writes experiment results as CSV and JSON and computes
// summary statistics over response curves and histograms.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/odorsampling/config"
)

// csvFile is an output file opened on first write.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager discards everything.
type OutputManager struct {
	dir        string
	curves     csvFile
	curveStats csvFile
	histograms csvFile
	receptors  csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:        dir,
		curves:     csvFile{name: "curves.csv"},
		curveStats: csvFile{name: "curve_stats.csv"},
		histograms: csvFile{name: "histograms.csv"},
		receptors:  csvFile{name: "receptors.csv"},
	}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteCurve appends response-curve points to curves.csv.
func (om *OutputManager) WriteCurve(points []CurvePoint) error {
	if om == nil || len(points) == 0 {
		return nil
	}
	return om.write(&om.curves, points)
}

// WriteCurveStats appends curve summaries to curve_stats.csv.
func (om *OutputManager) WriteCurveStats(stats []CurveStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	return om.write(&om.curveStats, stats)
}

// WriteHistogram appends histogram bins to histograms.csv.
func (om *OutputManager) WriteHistogram(rows []HistogramRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	return om.write(&om.histograms, rows)
}

// WriteReceptors appends receptor parameters to receptors.csv.
func (om *OutputManager) WriteReceptors(rows []ReceptorRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	return om.write(&om.receptors, rows)
}

func (om *OutputManager) write(cf *csvFile, records any) error {
	if cf.f == nil {
		f, err := os.Create(filepath.Join(om.dir, cf.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", cf.name, err)
		}
		cf.f = f
	}

	if !cf.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, cf.f); err != nil {
			return fmt.Errorf("writing %s: %w", cf.name, err)
		}
		cf.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, cf.f); err != nil {
		return fmt.Errorf("writing %s: %w", cf.name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, cf := range []*csvFile{&om.curves, &om.curveStats, &om.histograms, &om.receptors} {
		if cf.f == nil {
			continue
		}
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		cf.f = nil
	}
	return firstErr
}

// ReadCurves parses curve rows previously written by WriteCurve.
func ReadCurves(r io.Reader) ([]CurvePoint, error) {
	var points []CurvePoint
	if err := gocsv.Unmarshal(r, &points); err != nil {
		return nil, fmt.Errorf("reading curves: %w", err)
	}
	return points, nil
}
