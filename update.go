package genodata

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseSexCode maps 1/M to male and 2/F to female.
func parseSexCode(code string) (Sex, error) {
	switch strings.ToUpper(code) {
	case "1", "M":
		return SexMale, nil
	case "2", "F":
		return SexFemale, nil
	}
	return SexUnknown, fmt.Errorf("%w: unrecognized sex code %q", ErrFormat, code)
}

// UpdateSex reads "FID IID sex" rows and replaces the sex of every sample.
// Samples that are not listed become SexUnknown; every active sample must
// be listed.
func (d *Dataset) UpdateSex(r io.Reader) error {
	sexes := make([]Sex, d.Samples.Len())
	for i := range sexes {
		sexes[i] = SexUnknown
	}
	seen := make([]bool, d.Samples.Len())

	scanner := newLineScanner(r)
	line, matched := 0, 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 3 {
			return fmt.Errorf("%w: line %d of the sex file has %d columns, expected 3", ErrFormat, line, len(cols))
		}

		sex, err := parseSexCode(cols[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		i, ok := d.Samples.Lookup(SampleKey{FamilyID: cols[0], IndividualID: cols[1]})
		if !ok {
			continue
		}
		sexes[i] = sex
		seen[i] = true
		matched++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, i := range d.ActiveSamples {
		if !seen[i] {
			return fmt.Errorf("%w: the sex of individual %s was not updated; the sex of every included individual must be given", ErrUnresolvedSex, d.Samples.At(i).Key())
		}
	}
	for i, sex := range sexes {
		if err := d.Samples.SetSex(SampleIndex(i), sex); err != nil {
			return err
		}
	}

	d.log().Infof("Sex information of %d individuals has been updated", matched)
	return nil
}

// UpdateRefAllele reads "SNP allele" rows and makes the allele the counted
// reference allele of the marker. Nothing is changed unless every row is
// valid.
func (d *Dataset) UpdateRefAllele(r io.Reader) error {
	refs := make(map[MarkerIndex]string)
	matched, err := d.updateMarkers(r, 2, "reference allele", func(i MarkerIndex, cols []string) error {
		m := d.Markers.At(i)
		allele := strings.ToUpper(cols[1])
		if allele != m.Allele1 && allele != m.Allele2 {
			return fmt.Errorf("%w: reference allele %q is neither %q nor %q for marker %q", ErrFormat, cols[1], m.Allele1, m.Allele2, m.Name)
		}
		refs[i] = allele
		return nil
	})
	if err != nil {
		return err
	}

	for i, allele := range refs {
		before := d.Markers.At(i).RefAllele
		if err := d.Markers.SetRefAllele(i, allele); err != nil {
			return err
		}
		// A known mu follows the counted allele.
		if d.Mu != nil && allele != before {
			d.Mu[i] = 2 - d.Mu[i]
		}
	}

	d.logMarkerUpdate(matched, "Reference alleles")
	return nil
}

// UpdateImputationQuality reads "SNP Rsq" rows. Markers that are not
// listed get a quality of zero.
func (d *Dataset) UpdateImputationQuality(r io.Reader) error {
	quality := make([]float64, d.Markers.Len())
	matched, err := d.updateMarkers(r, 2, "imputation quality", func(i MarkerIndex, cols []string) error {
		rsq, err := strconv.ParseFloat(cols[1], 64)
		if err != nil || rsq < 0 || rsq > 2 {
			return fmt.Errorf("%w: imputation Rsq %q of SNP %q is not in [0, 2]", ErrFormat, cols[1], cols[0])
		}
		quality[i] = rsq
		return nil
	})
	if err != nil {
		return err
	}
	for i, q := range quality {
		if err := d.Markers.SetQuality(MarkerIndex(i), q); err != nil {
			return err
		}
	}

	d.logMarkerUpdate(matched, "Imputation quality scores")
	return nil
}

// UpdateFrequency reads "SNP allele frequency" rows and sets mu from the
// given allele frequency. Markers that are not listed get mu zero.
func (d *Dataset) UpdateFrequency(r io.Reader) error {
	mu := make([]float64, d.Markers.Len())
	matched, err := d.updateMarkers(r, 3, "allele frequency", func(i MarkerIndex, cols []string) error {
		m := d.Markers.At(i)
		allele := strings.ToUpper(cols[1])
		if allele != m.Allele1 && allele != m.Allele2 {
			return fmt.Errorf("%w: allele %q is neither %q nor %q for SNP %q", ErrFormat, cols[1], m.Allele1, m.Allele2, m.Name)
		}
		f, err := strconv.ParseFloat(cols[2], 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%w: frequency %q of SNP %q is not in [0, 1]", ErrFormat, cols[2], m.Name)
		}
		if allele == m.RefAllele {
			mu[i] = 2 * f
		} else {
			mu[i] = 2 * (1 - f)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.Mu = mu

	d.logMarkerUpdate(matched, "Allele frequencies")
	return nil
}

// updateMarkers applies fn to every row that names a registered marker and
// returns the number of such rows.
func (d *Dataset) updateMarkers(r io.Reader, columns int, what string, fn func(MarkerIndex, []string) error) (int, error) {
	scanner := newLineScanner(r)

	line, matched := 0, 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < columns {
			return matched, fmt.Errorf("%w: line %d of the %s file has %d columns, expected %d", ErrFormat, line, what, len(cols), columns)
		}

		i, ok := d.Markers.Lookup(cols[0])
		if !ok {
			continue
		}
		if err := fn(i, cols); err != nil {
			return matched, fmt.Errorf("line %d: %w", line, err)
		}
		matched++
	}

	return matched, scanner.Err()
}

func (d *Dataset) logMarkerUpdate(matched int, what string) {
	d.log().Infof("%s of %d SNPs have been updated", what, matched)
	if matched < d.Markers.Len() {
		d.log().Warnf("%s of %d SNPs were not updated", what, d.Markers.Len()-matched)
	}
}

// UpdateSexFile, UpdateRefAlleleFile, UpdateImputationQualityFile and
// UpdateFrequencyFile read their rows from path.
func (d *Dataset) UpdateSexFile(path string) error {
	return withInput(path, d.UpdateSex)
}

func (d *Dataset) UpdateRefAlleleFile(path string) error {
	return withInput(path, d.UpdateRefAllele)
}

func (d *Dataset) UpdateImputationQualityFile(path string) error {
	return withInput(path, d.UpdateImputationQuality)
}

func (d *Dataset) UpdateFrequencyFile(path string) error {
	return withInput(path, d.UpdateFrequency)
}
