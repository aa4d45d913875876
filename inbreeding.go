package genodata

import (
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"github.com/montanaflynn/stats"
)

// Inbreeding holds the inbreeding estimates of one sample. Fhat1, Fhat1W
// and Fhat4 already have 1 subtracted. The extended fields are only set
// when requested.
type Inbreeding struct {
	Sample     SampleIndex
	NonMissing float64

	Fhat1 float64
	Fhat2 float64
	Fhat3 float64

	RareHom   float64
	CommonHom float64
	Fhat1W    float64
	Fhat2W    float64
	Fhat4     float64
	Fhat5     float64
	Fhat6     float64
	Fhat7     float64
}

// markerMoments are the per-marker quantities the estimators share. p is
// the reference allele frequency.
type markerMoments struct {
	mu, p, h, hInv, w, pq, qp float64
}

func newMarkerMoments(mu float64) markerMoments {
	m := markerMoments{mu: mu, p: 0.5 * mu}
	m.h = 2 * m.p * (1 - m.p)
	m.pq = m.p / (1 - m.p)
	if math.Abs(m.pq) >= 1e-50 {
		m.qp = 1 / m.pq
	}
	m.w = m.h / (1 - m.h)
	if math.Abs(m.h) >= 1e-50 {
		m.hInv = 1 / m.h
	}
	return m
}

// EstimateInbreeding computes, for every active sample, the inbreeding
// coefficient estimators Fhat1 (variance of additive genotype values),
// Fhat2 (excess homozygosity) and Fhat3 (correlation between uniting
// gametes) over the active autosomal markers. With extended set it also
// computes the weighted and unscaled variants Fhat1_w, Fhat2_w, Fhat4,
// Fhat5, Fhat6, Fhat7 and the proportions of rare and common homozygotes.
func (d *Dataset) EstimateInbreeding(extended bool) ([]Inbreeding, error) {
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

	d.log().Infof("Calculating the inbreeding coefficients of %d individuals", len(d.ActiveSamples))

	moments := make([]markerMoments, len(d.ActiveMarkers))
	for k, i := range d.ActiveMarkers {
		moments[k] = newMarkerMoments(d.Mu[i])
	}

	out := make([]Inbreeding, len(d.ActiveSamples))
	parallel.Range(0, len(d.ActiveSamples), d.threads(), func(low, high int) {
		for s := low; s < high; s++ {
			out[s] = d.inbreeding(calls, d.ActiveSamples[s], moments, extended)
		}
	})

	for _, summary := range SummarizeInbreeding(out, extended) {
		d.log().WithField("estimator", summary.Name).Infof("mean %.6g, median %.6g, SD %.6g over %d individuals", summary.Mean, summary.Median, summary.SD, summary.N)
	}

	return out, nil
}

func (d *Dataset) inbreeding(calls *CallMatrix, sample SampleIndex, moments []markerMoments, extended bool) Inbreeding {
	f := Inbreeding{Sample: sample}

	var sumW, sumH float64
	for k, marker := range d.ActiveMarkers {
		c := calls.At(marker, sample)
		if c.Missing() {
			continue
		}
		m := moments[k]
		x := d.Markers.At(marker).RefCount(c.Dosage())

		dev := (x - m.mu) * (x - m.mu)
		f.Fhat1 += dev * m.hInv
		hom := m.h - x*(2-x)
		f.Fhat2 += hom * m.hInv
		uniting := x*(x-1-m.mu) + m.mu*m.p
		f.Fhat3 += uniting * m.hInv

		if extended {
			f.Fhat4 += dev
			f.Fhat1W += dev * m.hInv * m.w
			f.Fhat6 += hom
			f.Fhat2W += hom * m.hInv * m.w
			f.Fhat5 += uniting
			sumW += m.w
			sumH += m.h

			switch {
			case x < 0.1:
				f.Fhat7 += m.pq
				if m.p > 0.5 {
					f.RareHom++
				} else {
					f.CommonHom++
				}
			case x > 1.9:
				f.Fhat7 += m.qp
				if m.p < 0.5 {
					f.RareHom++
				} else {
					f.CommonHom++
				}
			}
		}
		f.NonMissing++
	}

	f.Fhat1 = f.Fhat1/f.NonMissing - 1
	f.Fhat2 /= f.NonMissing
	f.Fhat3 /= f.NonMissing
	if extended {
		f.Fhat1W = f.Fhat1W/sumW - 1
		f.Fhat2W /= sumW
		f.Fhat4 = f.Fhat4/sumH - 1
		f.Fhat5 /= sumH
		f.Fhat6 /= sumH
		f.Fhat7 /= f.NonMissing
		f.RareHom /= f.NonMissing
		f.CommonHom /= f.NonMissing
	}

	return f
}

// EstimatorSummary describes the distribution of one estimator across
// samples, ignoring samples where it is NaN.
type EstimatorSummary struct {
	Name   string
	N      int
	Mean   float64
	Median float64
	SD     float64
}

// SummarizeInbreeding summarizes Fhat1..Fhat3, and the extended estimators
// when requested.
func SummarizeInbreeding(results []Inbreeding, extended bool) []EstimatorSummary {
	type column struct {
		name string
		get  func(Inbreeding) float64
	}
	columns := []column{
		{"Fhat1", func(f Inbreeding) float64 { return f.Fhat1 }},
		{"Fhat2", func(f Inbreeding) float64 { return f.Fhat2 }},
		{"Fhat3", func(f Inbreeding) float64 { return f.Fhat3 }},
	}
	if extended {
		columns = append(columns,
			column{"Fhat1_w", func(f Inbreeding) float64 { return f.Fhat1W }},
			column{"Fhat2_w", func(f Inbreeding) float64 { return f.Fhat2W }},
			column{"Fhat4", func(f Inbreeding) float64 { return f.Fhat4 }},
			column{"Fhat5", func(f Inbreeding) float64 { return f.Fhat5 }},
			column{"Fhat6", func(f Inbreeding) float64 { return f.Fhat6 }},
			column{"Fhat7", func(f Inbreeding) float64 { return f.Fhat7 }},
		)
	}

	out := make([]EstimatorSummary, 0, len(columns))
	for _, c := range columns {
		data := make(stats.Float64Data, 0, len(results))
		for _, f := range results {
			if v := c.get(f); !math.IsNaN(v) && !math.IsInf(v, 0) {
				data = append(data, v)
			}
		}

		summary := EstimatorSummary{Name: c.name, N: len(data), Mean: math.NaN(), Median: math.NaN(), SD: math.NaN()}
		if len(data) > 0 {
			summary.Mean, _ = stats.Mean(data)
			summary.Median, _ = stats.Median(data)
			summary.SD, _ = stats.StandardDeviationSample(data)
			if len(data) < 2 {
				summary.SD = math.NaN()
			}
		}
		out = append(out, summary)
	}

	return out
}
