package genodata

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/exascience/pargo/parallel"
)

// AncestralProportions holds, for one sample, the proportions of its
// non-missing genotypes that fall into each ancestral/derived bucket. Rare
// and common refer to the frequency of the ancestral allele.
type AncestralProportions struct {
	Sample     SampleIndex
	NonMissing float64

	HomAncestralRare   float64
	HomAncestralCommon float64
	HomDerivedRare     float64
	HomDerivedCommon   float64
	HetAncestralRare   float64
	HetAncestralCommon float64
}

// ReadAncestralAlleles reads whitespace-separated pairs of marker name and
// ancestral allele. Pairs whose allele is "." are skipped.
func ReadAncestralAlleles(r io.Reader) (map[string]string, error) {
	scanner := newLineScanner(r)
	scanner.Split(bufio.ScanWords)

	out := make(map[string]string)
	for scanner.Scan() {
		name := scanner.Text()
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: SNP %q has no ancestral allele", ErrFormat, name)
		}
		if allele := scanner.Text(); allele != "." {
			out[name] = strings.ToUpper(allele)
		}
	}

	return out, scanner.Err()
}

// ReadAncestralAllelesFile reads ReadAncestralAlleles from path.
func ReadAncestralAllelesFile(path string) (ancestral map[string]string, err error) {
	err = withInput(path, func(r io.Reader) error {
		ancestral, err = ReadAncestralAlleles(r)
		return err
	})
	return ancestral, err
}

// AncestralAlleleProportions classifies the genotypes of every active sample
// at the active autosomal markers whose ancestral allele is known.
func (d *Dataset) AncestralAlleleProportions(ancestral map[string]string) ([]AncestralProportions, error) {
	if err := d.checkAutosomes(); err != nil {
		return nil, err
	}
	if err := d.ensureMu(); err != nil {
		return nil, err
	}
	calls, err := d.HardCalls()
	if err != nil {
		return nil, err
	}
	if len(d.ActiveSamples) == 0 {
		return nil, fmt.Errorf("%w: no individual is included", ErrEmptyResult)
	}

	// refAncestral[k] is nil when the ancestral allele of marker k is unknown.
	refAncestral := make([]*bool, len(d.ActiveMarkers))
	known := 0
	for k, i := range d.ActiveMarkers {
		m := d.Markers.At(i)
		aa, ok := ancestral[m.Name]
		if !ok {
			continue
		}
		isRef := m.RefAllele == aa
		refAncestral[k] = &isRef
		known++
	}
	d.log().Infof("Ancestral alleles for %d SNPs are included", known)

	out := make([]AncestralProportions, len(d.ActiveSamples))
	parallel.Range(0, len(d.ActiveSamples), d.threads(), func(low, high int) {
		for s := low; s < high; s++ {
			out[s] = d.ancestralProportions(calls, d.ActiveSamples[s], refAncestral)
		}
	})

	return out, nil
}

func (d *Dataset) ancestralProportions(calls *CallMatrix, sample SampleIndex, refAncestral []*bool) AncestralProportions {
	a := AncestralProportions{Sample: sample}

	for k, marker := range d.ActiveMarkers {
		if refAncestral[k] == nil {
			continue
		}
		c := calls.At(marker, sample)
		if c.Missing() {
			continue
		}
		refIsAncestral := *refAncestral[k]
		refCommon := d.Mu[marker] > 1
		x := d.Markers.At(marker).RefCount(c.Dosage())

		switch {
		case x < 0.1:
			// Homozygous for the non-reference allele.
			switch {
			case refIsAncestral && refCommon:
				a.HomDerivedRare++
			case refIsAncestral:
				a.HomDerivedCommon++
			case refCommon:
				a.HomAncestralRare++
			default:
				a.HomAncestralCommon++
			}
		case x > 1.9:
			switch {
			case refIsAncestral && refCommon:
				a.HomAncestralCommon++
			case refIsAncestral:
				a.HomAncestralRare++
			case refCommon:
				a.HomDerivedCommon++
			default:
				a.HomDerivedRare++
			}
		default:
			if refIsAncestral == refCommon {
				a.HetAncestralCommon++
			} else {
				a.HetAncestralRare++
			}
		}
		a.NonMissing++
	}

	a.HomAncestralRare /= a.NonMissing
	a.HomAncestralCommon /= a.NonMissing
	a.HomDerivedRare /= a.NonMissing
	a.HomDerivedCommon /= a.NonMissing
	a.HetAncestralRare /= a.NonMissing
	a.HetAncestralCommon /= a.NonMissing

	return a
}
