package genodata

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Dataset is one loaded genotype dataset: the registries, the active
// marker and sample sets, and the genotypes themselves as hard calls, as
// dosages, or both. Genotype matrices are indexed by registry position.
type Dataset struct {
	// AutosomeCount is the number of autosomes; it places the X
	// chromosome at AutosomeCount+1.
	AutosomeCount int

	// Threads bounds the workers used by the statistics.
	Threads int

	Log logrus.FieldLogger

	Markers       *MarkerRegistry
	Samples       *SampleRegistry
	ActiveMarkers []MarkerIndex
	ActiveSamples []SampleIndex

	Calls   *CallMatrix
	Dosages *DosageStore

	// Mu holds the mean reference-allele dosage of every registry marker,
	// NaN where it is undefined. It is nil until computed or loaded.
	Mu []float64
}

func NewDataset() *Dataset {
	return &Dataset{
		AutosomeCount: DefaultAutosomeCount,
		Threads:       runtime.NumCPU(),
		Log:           logrus.StandardLogger(),
	}
}

func (d *Dataset) log() logrus.FieldLogger {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return d.Log
}

func (d *Dataset) threads() int {
	if d.Threads < 1 {
		return 1
	}
	return d.Threads
}

func (d *Dataset) setMarkers(markers []Marker) error {
	reg, err := NewMarkerRegistry(markers)
	if err != nil {
		return err
	}
	d.Markers = reg
	d.ActiveMarkers = identityMarkers(reg.Len())
	d.Mu = nil
	return nil
}

func (d *Dataset) setSamples(samples []Sample) error {
	reg, err := NewSampleRegistry(samples)
	if err != nil {
		return err
	}
	d.Samples = reg
	d.ActiveSamples = identitySamples(reg.Len())
	return nil
}

// ReadFAMFile loads the samples of a PLINK FAM file.
func (d *Dataset) ReadFAMFile(path string) error {
	var samples []Sample
	err := withInput(path, func(r io.Reader) (err error) {
		samples, err = ReadFAM(r)
		return err
	})
	if err != nil {
		return err
	}
	if err := d.setSamples(samples); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	d.log().WithField("path", path).Infof("%d individuals to be included", len(samples))
	return nil
}

// ReadBIMFile loads the markers of a PLINK BIM file.
func (d *Dataset) ReadBIMFile(path string) error {
	var markers []Marker
	err := withInput(path, func(r io.Reader) (err error) {
		markers, err = ReadBIM(r, d.AutosomeCount)
		return err
	})
	if err != nil {
		return err
	}
	if err := d.setMarkers(markers); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	d.log().WithField("path", path).Infof("%d SNPs to be included", len(markers))
	return nil
}

// ReadBEDFile decodes the active markers and samples of a BED file, then
// compacts both registries to the active sets.
func (d *Dataset) ReadBEDFile(path string) error {
	if d.Markers == nil || d.Samples == nil {
		return fmt.Errorf("%w: the BIM and FAM files must be read before the BED file", ErrConsistency)
	}
	if len(d.ActiveMarkers) == 0 || len(d.ActiveSamples) == 0 {
		return fmt.Errorf("%w: no SNP or individual is retained before reading %s", ErrEmptyResult, path)
	}

	var calls *CallMatrix
	err := withInput(path, func(r io.Reader) (err error) {
		calls, err = DecodeBED(r, d.Samples.Len(), d.Markers.Len(), d.ActiveSamples, d.ActiveMarkers)
		return err
	})
	if err != nil {
		return err
	}

	if err := d.compact(); err != nil {
		return err
	}
	d.Calls = calls
	d.Dosages = nil

	d.log().WithField("path", path).Infof("Genotype data for %d individuals and %d SNPs have been included", len(d.ActiveSamples), len(d.ActiveMarkers))
	return nil
}

// compact rewrites the registries to the active sets, which become the
// identity afterwards.
func (d *Dataset) compact() error {
	if err := d.compactMarkers(); err != nil {
		return err
	}
	if err := d.Samples.CompactTo(d.ActiveSamples); err != nil {
		return err
	}
	d.ActiveSamples = identitySamples(d.Samples.Len())
	return nil
}

func (d *Dataset) compactMarkers() error {
	if d.Mu != nil {
		mu := make([]float64, len(d.ActiveMarkers))
		for j, i := range d.ActiveMarkers {
			mu[j] = d.Mu[i]
		}
		d.Mu = mu
	}
	if err := d.Markers.CompactTo(d.ActiveMarkers); err != nil {
		return err
	}
	d.ActiveMarkers = identityMarkers(d.Markers.Len())
	return nil
}

// ReadMACHInfoFile loads the markers of a MACH .mlinfo file, including
// their imputation quality.
func (d *Dataset) ReadMACHInfoFile(path string) error {
	var markers []Marker
	err := withInput(path, func(r io.Reader) (err error) {
		markers, err = ReadMACHInfo(r)
		return err
	})
	if err != nil {
		return err
	}
	if err := d.setMarkers(markers); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d.Markers.hasQuality = true

	d.log().WithField("path", path).Infof("%d SNPs to be included", len(markers))
	return nil
}

// ReadBeagleInfoFile loads the markers of a BEAGLE summary file.
func (d *Dataset) ReadBeagleInfoFile(path string) error {
	var markers []Marker
	err := withInput(path, func(r io.Reader) (err error) {
		markers, err = ReadBeagleInfo(r, d.AutosomeCount)
		return err
	})
	if err != nil {
		return err
	}
	if err := d.setMarkers(markers); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d.Markers.hasQuality = true

	d.log().WithField("path", path).Infof("%d SNPs to be included", len(markers))
	return nil
}

// ReadMACHDoseFile loads the dosages of a MACH .mldose file for the active
// markers and the samples retained by filter.
func (d *Dataset) ReadMACHDoseFile(path string, filter DosageFilter) error {
	return d.readDose(path, LayoutMACH, filter)
}

// ReadBeagleDoseFile loads the dosages of a BEAGLE dose file for the active
// markers and the samples retained by filter.
func (d *Dataset) ReadBeagleDoseFile(path string, filter DosageFilter) error {
	return d.readDose(path, LayoutBeagle, filter)
}

func (d *Dataset) readDose(path string, layout DosageLayout, filter DosageFilter) error {
	if d.Markers == nil {
		return fmt.Errorf("%w: the %s info file must be read before the dose file", ErrConsistency, layout)
	}
	if len(d.ActiveMarkers) == 0 {
		return fmt.Errorf("%w: no SNP is retained before reading %s", ErrEmptyResult, path)
	}

	var data *DosageData
	err := withInput(path, func(r io.Reader) (err error) {
		switch layout {
		case LayoutBeagle:
			data, err = ReadBeagleDose(r, d.Markers, d.ActiveMarkers, filter)
		default:
			data, err = ReadMACHDose(r, d.Markers, d.ActiveMarkers, filter)
		}
		return err
	})
	if err != nil {
		return err
	}

	log := d.log().WithField("path", path)
	if data.MissingTokens > 0 {
		log.Warnf("%d dosage values are missing or not numeric and are treated as missing", data.MissingTokens)
	}
	if len(data.Samples) == 0 {
		return fmt.Errorf("%w: no individual of %s is retained", ErrEmptyResult, path)
	}

	if err := d.compactMarkers(); err != nil {
		return err
	}
	if err := d.setSamples(data.Samples); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d.Dosages = data.Dosages
	d.Calls = nil

	log.Infof("Imputed dosage data (%s) for %d individuals and %d SNPs have been included", layout, len(d.ActiveSamples), len(d.ActiveMarkers))
	return nil
}

// HardCalls returns the dataset as hard calls, converting dosages when no
// calls were loaded.
func (d *Dataset) HardCalls() (*CallMatrix, error) {
	switch {
	case d.Calls != nil:
		return d.Calls, nil
	case d.Dosages != nil:
		d.Calls = d.Dosages.ToHardCalls()
		return d.Calls, nil
	}
	return nil, fmt.Errorf("%w: no genotype data has been loaded", ErrConsistency)
}

// dosage returns the allele-2 dosage of one genotype, preferring imputed
// dosages over hard calls.
func (d *Dataset) dosage(marker MarkerIndex, sample SampleIndex) (float64, bool) {
	if d.Dosages != nil {
		v := d.Dosages.At(sample, marker)
		return v, !IsMissingDosage(v)
	}
	c := d.Calls.At(marker, sample)
	if c.Missing() {
		return 0, false
	}
	return c.Dosage(), true
}

func (d *Dataset) hasGenotypes() bool {
	return d.Calls != nil || d.Dosages != nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
