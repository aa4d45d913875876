package genodata

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// markersPerTask is the number of markers one worker handles at a time.
const markersPerTask = 256

// alleleWeight is the number of allele copies a genotype at chromosome chr
// contributes for sample s, halved for hemizygous copies.
func (d *Dataset) alleleWeight(chr int, s Sample) float64 {
	switch {
	case chr <= d.AutosomeCount:
		return 1
	case chr == d.AutosomeCount+1:
		if s.Sex == SexMale {
			return 0.5
		}
		return 1
	default:
		return 0.5
	}
}

// checkSexResolved fails when an X marker is active and an active sample is
// neither male nor female.
func (d *Dataset) checkSexResolved() error {
	xChr := d.AutosomeCount + 1

	hasX := false
	for _, i := range d.ActiveMarkers {
		if d.Markers.At(i).Chromosome == xChr {
			hasX = true
			break
		}
	}
	if !hasX {
		return nil
	}

	for _, i := range d.ActiveSamples {
		s := d.Samples.At(i)
		if s.Sex != SexMale && s.Sex != SexFemale {
			return fmt.Errorf("%w: individual %s has sex code %d; sex is required for markers on the X chromosome", ErrUnresolvedSex, s.Key(), s.Sex)
		}
	}
	return nil
}

// ComputeMeanDosage computes mu, the weighted mean reference-allele dosage,
// of every active marker over the active samples. Missing genotypes are
// skipped. Markers without any informative genotype, and inactive markers,
// get NaN. The result is stored in d.Mu and returned.
func (d *Dataset) ComputeMeanDosage() ([]float64, error) {
	if !d.hasGenotypes() {
		return nil, fmt.Errorf("%w: no genotype data has been loaded", ErrConsistency)
	}
	if err := d.checkSexResolved(); err != nil {
		return nil, err
	}

	samples := make([]Sample, len(d.ActiveSamples))
	for k, i := range d.ActiveSamples {
		samples[k] = d.Samples.At(i)
	}

	mu := nanSlice(d.Markers.Len())

	var g errgroup.Group
	g.SetLimit(d.threads())
	for start := 0; start < len(d.ActiveMarkers); start += markersPerTask {
		end := start + markersPerTask
		if end > len(d.ActiveMarkers) {
			end = len(d.ActiveMarkers)
		}
		chunk := d.ActiveMarkers[start:end]

		g.Go(func() error {
			for _, marker := range chunk {
				mu[marker] = d.meanDosage(marker, samples)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Mu = mu
	d.log().Infof("Allele frequencies of %d SNPs have been calculated", len(d.ActiveMarkers))
	return mu, nil
}

// meanDosage sums in active-sample order so that the result does not depend
// on how markers are scheduled.
func (d *Dataset) meanDosage(marker MarkerIndex, samples []Sample) float64 {
	m := d.Markers.At(marker)

	var sum, weight float64
	for k, i := range d.ActiveSamples {
		x, ok := d.dosage(marker, i)
		if !ok {
			continue
		}
		w := d.alleleWeight(m.Chromosome, samples[k])
		sum += w * m.RefCount(x)
		weight += w
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// checkAutosomes fails when any active marker is not autosomal.
func (d *Dataset) checkAutosomes() error {
	for _, i := range d.ActiveMarkers {
		if m := d.Markers.At(i); m.Chromosome > d.AutosomeCount {
			return fmt.Errorf("%w: SNP %q is on chromosome %s; this analysis is for autosomal SNPs only", ErrConsistency, m.Name, ChromosomeLabel(m.Chromosome, d.AutosomeCount))
		}
	}
	return nil
}
