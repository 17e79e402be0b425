package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shoal/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir            string
	familyFile     *os.File
	demographyFile *os.File
	populationFile *os.File

	// Track if headers have been written
	familyHeaderWritten     bool
	demographyHeaderWritten bool
	populationHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "family.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating family.csv: %w", err)
	}
	om.familyFile = f

	f, err = os.Create(filepath.Join(dir, "demography.csv"))
	if err != nil {
		om.familyFile.Close()
		return nil, fmt.Errorf("creating demography.csv: %w", err)
	}
	om.demographyFile = f

	f, err = os.Create(filepath.Join(dir, "population.csv"))
	if err != nil {
		om.familyFile.Close()
		om.demographyFile.Close()
		return nil, fmt.Errorf("creating population.csv: %w", err)
	}
	om.populationFile = f

	return om, nil
}

// WriteConfig saves the loaded configuration as YAML next to the CSVs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFamily writes sampled-ancestry records to family.csv.
func (om *OutputManager) WriteFamily(records []FamilyRecord) error {
	if om == nil {
		return nil
	}
	if !om.familyHeaderWritten {
		if err := gocsv.Marshal(records, om.familyFile); err != nil {
			return fmt.Errorf("writing family: %w", err)
		}
		om.familyHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.familyFile); err != nil {
		return fmt.Errorf("writing family: %w", err)
	}
	return nil
}

// WriteDemography writes per-quarter count rows to demography.csv.
func (om *OutputManager) WriteDemography(rows []DemographyRow) error {
	if om == nil {
		return nil
	}
	if !om.demographyHeaderWritten {
		if err := gocsv.Marshal(rows, om.demographyFile); err != nil {
			return fmt.Errorf("writing demography: %w", err)
		}
		om.demographyHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.demographyFile); err != nil {
		return fmt.Errorf("writing demography: %w", err)
	}
	return nil
}

// WritePopulation writes the final live cohort to population.csv.
func (om *OutputManager) WritePopulation(records []IndividualRecord) error {
	if om == nil {
		return nil
	}
	if !om.populationHeaderWritten {
		if err := gocsv.Marshal(records, om.populationFile); err != nil {
			return fmt.Errorf("writing population: %w", err)
		}
		om.populationHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.populationFile); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	return nil
}

// WriteFamilyTo marshals ancestry records to an arbitrary writer, for
// runs without an output directory.
func WriteFamilyTo(w io.Writer, records []FamilyRecord) error {
	return gocsv.Marshal(records, w)
}

// Close closes all output files.
func (om *OutputManager) Close() {
	if om == nil {
		return
	}
	om.familyFile.Close()
	om.demographyFile.Close()
	om.populationFile.Close()
}
