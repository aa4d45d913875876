package genodata

import (
	"fmt"
	"io"
	"math"
)

func (d *Dataset) narrowMarkers(active []MarkerIndex, what string) error {
	before := len(d.ActiveMarkers)
	d.ActiveMarkers = active
	d.log().Infof("%d of %d SNPs are retained after %s", len(active), before, what)
	if len(active) == 0 {
		return fmt.Errorf("%w: no SNP is retained after %s", ErrEmptyResult, what)
	}
	return nil
}

func (d *Dataset) narrowSamples(active []SampleIndex, what string) error {
	before := len(d.ActiveSamples)
	d.ActiveSamples = active
	d.log().Infof("%d of %d individuals are retained after %s", len(active), before, what)
	if len(active) == 0 {
		return fmt.Errorf("%w: no individual is retained after %s", ErrEmptyResult, what)
	}
	return nil
}

// ExtractMarkers keeps only the active markers that are named.
func (d *Dataset) ExtractMarkers(names []string) error {
	return d.narrowMarkers(IntersectNamed(d.ActiveMarkers, names, d.Markers.Lookup), "extracting the listed SNPs")
}

// ExcludeMarkers drops the named markers from the active set.
func (d *Dataset) ExcludeMarkers(names []string) error {
	return d.narrowMarkers(SubtractNamed(d.ActiveMarkers, names, d.Markers.Lookup), "excluding the listed SNPs")
}

// ExtractMarker keeps a single marker.
func (d *Dataset) ExtractMarker(name string) error {
	if _, ok := d.Markers.Lookup(name); !ok {
		return fmt.Errorf("%w: can not find the SNP %q in the data", ErrEmptyResult, name)
	}
	return d.ExtractMarkers([]string{name})
}

// ExcludeMarker drops a single marker, which must exist.
func (d *Dataset) ExcludeMarker(name string) error {
	if _, ok := d.Markers.Lookup(name); !ok {
		return fmt.Errorf("%w: can not find the SNP %q in the data", ErrNotFound, name)
	}
	return d.ExcludeMarkers([]string{name})
}

// ExtractMarkersFile keeps the markers listed in a file.
func (d *Dataset) ExtractMarkersFile(path string) error {
	names, err := readMarkerListFile(path)
	if err != nil {
		return err
	}
	return d.ExtractMarkers(names)
}

// ExcludeMarkersFile drops the markers listed in a file.
func (d *Dataset) ExcludeMarkersFile(path string) error {
	names, err := readMarkerListFile(path)
	if err != nil {
		return err
	}
	return d.ExcludeMarkers(names)
}

func readMarkerListFile(path string) (names []string, err error) {
	err = withInput(path, func(r io.Reader) error {
		names, err = ReadMarkerList(r)
		return err
	})
	return names, err
}

func readSampleListFile(path string) (keys []SampleKey, err error) {
	err = withInput(path, func(r io.Reader) error {
		keys, err = ReadSampleList(r)
		return err
	})
	return keys, err
}

// ExtractChromosomes keeps the active markers on chromosomes start..end
// inclusive.
func (d *Dataset) ExtractChromosomes(start, end int) error {
	active := retain(d.ActiveMarkers, func(i MarkerIndex) bool {
		chr := d.Markers.At(i).Chromosome
		return chr >= start && chr <= end
	})

	what := fmt.Sprintf("extracting chromosome %s", ChromosomeLabel(start, d.AutosomeCount))
	if start != end {
		what = fmt.Sprintf("extracting chromosomes %s to %s", ChromosomeLabel(start, d.AutosomeCount), ChromosomeLabel(end, d.AutosomeCount))
	}
	return d.narrowMarkers(active, what)
}

// minorAlleleFrequency is min(p, 1-p) with p = mu/2. It is NaN when mu is.
func minorAlleleFrequency(mu float64) float64 {
	p := 0.5 * mu
	return math.Min(p, 1-p)
}

func (d *Dataset) ensureMu() error {
	if d.Mu != nil {
		return nil
	}
	_, err := d.ComputeMeanDosage()
	return err
}

// FilterMAF drops markers whose minor allele frequency is at most min.
// Markers without a defined frequency are dropped as well.
func (d *Dataset) FilterMAF(min float64) error {
	if err := d.ensureMu(); err != nil {
		return err
	}
	active := retain(d.ActiveMarkers, func(i MarkerIndex) bool {
		maf := minorAlleleFrequency(d.Mu[i])
		return !math.IsNaN(maf) && maf > min
	})
	return d.narrowMarkers(active, fmt.Sprintf("filtering SNPs with MAF <= %g", min))
}

// FilterMaxMAF drops markers whose minor allele frequency exceeds max.
// Markers without a defined frequency are dropped as well.
func (d *Dataset) FilterMaxMAF(max float64) error {
	if err := d.ensureMu(); err != nil {
		return err
	}
	active := retain(d.ActiveMarkers, func(i MarkerIndex) bool {
		maf := minorAlleleFrequency(d.Mu[i])
		return !math.IsNaN(maf) && maf <= max
	})
	return d.narrowMarkers(active, fmt.Sprintf("filtering SNPs with MAF > %g", max))
}

// FilterImputationQuality drops markers whose imputation Rsq is below
// cutoff. Without quality information the active set is left unchanged.
func (d *Dataset) FilterImputationQuality(cutoff float64) error {
	if !d.Markers.HasQuality() {
		d.log().Warnf("the imputation quality score for a SNP was not provided; the Rsq filter is ignored")
		return nil
	}
	active := retain(d.ActiveMarkers, func(i MarkerIndex) bool {
		return d.Markers.At(i).Quality >= cutoff
	})
	return d.narrowMarkers(active, fmt.Sprintf("filtering SNPs with imputation Rsq < %g", cutoff))
}

// KeepSamples keeps only the active samples that are listed.
func (d *Dataset) KeepSamples(keys []SampleKey) error {
	return d.narrowSamples(IntersectNamed(d.ActiveSamples, keys, d.Samples.Lookup), "keeping the listed individuals")
}

// RemoveSamples drops the listed samples from the active set.
func (d *Dataset) RemoveSamples(keys []SampleKey) error {
	return d.narrowSamples(SubtractNamed(d.ActiveSamples, keys, d.Samples.Lookup), "removing the listed individuals")
}

// KeepSamplesFile keeps the samples listed in a file.
func (d *Dataset) KeepSamplesFile(path string) error {
	keys, err := readSampleListFile(path)
	if err != nil {
		return err
	}
	return d.KeepSamples(keys)
}

// RemoveSamplesFile drops the samples listed in a file.
func (d *Dataset) RemoveSamplesFile(path string) error {
	keys, err := readSampleListFile(path)
	if err != nil {
		return err
	}
	return d.RemoveSamples(keys)
}
