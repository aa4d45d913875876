package genodata

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// MakeXMat materializes the genotypes as an active-samples x active-markers
// matrix of reference allele counts. Missing genotypes hold mu when
// fillWithMu is set and MissingDosage otherwise.
func (d *Dataset) MakeXMat(fillWithMu bool) (*mat.Dense, error) {
	if !d.hasGenotypes() {
		return nil, fmt.Errorf("%w: no genotype data has been loaded", ErrConsistency)
	}
	if len(d.ActiveSamples) == 0 || len(d.ActiveMarkers) == 0 {
		return nil, fmt.Errorf("%w: no SNP or individual is included", ErrEmptyResult)
	}
	if fillWithMu {
		if err := d.ensureMu(); err != nil {
			return nil, err
		}
	}

	X := mat.NewDense(len(d.ActiveSamples), len(d.ActiveMarkers), nil)
	for j, marker := range d.ActiveMarkers {
		m := d.Markers.At(marker)
		for i, sample := range d.ActiveSamples {
			x, ok := d.dosage(marker, sample)
			switch {
			case ok:
				X.Set(i, j, m.RefCount(x))
			case fillWithMu:
				X.Set(i, j, d.Mu[marker])
			default:
				X.Set(i, j, MissingDosage)
			}
		}
	}

	return X, nil
}

// StandardizeXMat centers every column of X, a matrix from MakeXMat, on mu
// and, with divideBySD, scales it by the inverse standard deviation of the
// marker. Missing entries become zero. With xChromosome set, male rows are
// scaled by sqrt(0.5). The per-marker scale factors are returned.
func (d *Dataset) StandardizeXMat(X *mat.Dense, divideBySD, xChromosome bool) ([]float64, error) {
	n, m := X.Dims()
	if n != len(d.ActiveSamples) || m != len(d.ActiveMarkers) {
		return nil, fmt.Errorf("%w: matrix is %dx%d but %d individuals and %d SNPs are included", ErrConsistency, n, m, len(d.ActiveSamples), len(d.ActiveMarkers))
	}
	if err := d.ensureMu(); err != nil {
		return nil, err
	}

	sd := make([]float64, m)
	for j, marker := range d.ActiveMarkers {
		mu := d.Mu[marker]
		if d.Dosages == nil {
			sd[j] = mu * (1 - 0.5*mu)
			continue
		}
		var ss, count float64
		for i := 0; i < n; i++ {
			if v := X.At(i, j); !IsMissingDosage(v) {
				ss += (v - mu) * (v - mu)
				count++
			}
		}
		if count > 1 {
			sd[j] = ss / (count - 1)
		}
	}
	if divideBySD {
		for j := range sd {
			if math.Abs(sd[j]) < 1e-50 {
				sd[j] = 0
			} else {
				sd[j] = math.Sqrt(1 / sd[j])
			}
		}
	}

	for j, marker := range d.ActiveMarkers {
		mu := d.Mu[marker]
		for i := 0; i < n; i++ {
			v := X.At(i, j)
			if IsMissingDosage(v) {
				X.Set(i, j, 0)
				continue
			}
			v -= mu
			if divideBySD {
				v *= sd[j]
			}
			X.Set(i, j, v)
		}
	}

	if xChromosome {
		if err := d.checkSexResolved(); err != nil {
			return nil, err
		}
		for i, sample := range d.ActiveSamples {
			if d.Samples.At(sample).Sex != SexMale {
				continue
			}
			row := X.RawRowView(i)
			for j := range row {
				row[j] *= math.Sqrt(0.5)
			}
		}
	}

	return sd, nil
}

// WriteXMat writes the genotypes as text: a header naming the markers, a
// row of reference alleles, and one row per active sample. Missing
// genotypes are written as NA unless fillWithMu is set.
func (d *Dataset) WriteXMat(w io.Writer, fillWithMu bool) error {
	X, err := d.MakeXMat(fillWithMu)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("FID IID ")
	for _, i := range d.ActiveMarkers {
		bw.WriteString(d.Markers.At(i).Name)
		bw.WriteByte(' ')
	}
	bw.WriteString("\nReference Allele ")
	for _, i := range d.ActiveMarkers {
		bw.WriteString(d.Markers.At(i).RefAllele)
		bw.WriteByte(' ')
	}
	bw.WriteByte('\n')

	for r, i := range d.ActiveSamples {
		s := d.Samples.At(i)
		bw.WriteString(s.FamilyID)
		bw.WriteByte(' ')
		bw.WriteString(s.IndividualID)
		bw.WriteByte(' ')
		for c := range d.ActiveMarkers {
			if v := X.At(r, c); IsMissingDosage(v) {
				bw.WriteString("NA")
			} else {
				bw.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
			}
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// SaveXMat writes WriteXMat to path, compressed as requested.
func (d *Dataset) SaveXMat(path string, fillWithMu bool, c Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	cw, err := NewCompressedWriter(f, c)
	if err != nil {
		return err
	}
	if err := d.WriteXMat(cw, fillWithMu); err != nil {
		cw.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		return err
	}

	d.log().WithField("path", path).Infof("Genotypes of %d individuals at %d SNPs have been saved", len(d.ActiveSamples), len(d.ActiveMarkers))
	return f.Close()
}
