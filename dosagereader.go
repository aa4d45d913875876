package genodata

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SampleSet is a set of sample keys read from a keep, remove or effects
// file.
type SampleSet map[SampleKey]struct{}

// NewSampleSet builds a set from keys.
func NewSampleSet(keys []SampleKey) SampleSet {
	s := make(SampleSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s SampleSet) Has(k SampleKey) bool {
	_, ok := s[k]
	return ok
}

// DosageFilter decides which samples of a dosage file are loaded. A nil set
// is not configured and does not restrict anything. A sample is retained
// when it is in Keep, in Effects, and not in Remove.
type DosageFilter struct {
	Keep    SampleSet
	Effects SampleSet
	Remove  SampleSet
}

func (f DosageFilter) Retain(k SampleKey) bool {
	if f.Keep != nil && !f.Keep.Has(k) {
		return false
	}
	if f.Effects != nil && !f.Effects.Has(k) {
		return false
	}
	if f.Remove != nil && f.Remove.Has(k) {
		return false
	}
	return true
}

// DosageData is the result of reading a dosage file: the retained samples
// and their dosages at the active markers.
type DosageData struct {
	Samples []Sample
	Dosages *DosageStore

	// MissingTokens counts the values that were stored as MissingDosage.
	MissingTokens int
}

func dosageSample(fid, iid string) Sample {
	return Sample{
		FamilyID:     fid,
		IndividualID: iid,
		PaternalID:   "0",
		MaternalID:   "0",
		Sex:          SexUnset,
		Phenotype:    MissingPhenotype,
	}
}

// ReadMACHInfo reads a MACH .mlinfo file. The header's seventh column must
// be the imputation quality, labeled Rsq.
func ReadMACHInfo(r io.Reader) ([]Marker, error) {
	scanner := newLineScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: the MACH info file is empty", ErrFormat)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 7 || header[6] != "Rsq" {
		return nil, fmt.Errorf("%w: the seventh column of the MACH info header must be Rsq", ErrFormat)
	}

	var markers []Marker
	line := 1
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 7 {
			return nil, fmt.Errorf("%w: line %d of the MACH info file has %d columns, expected at least 7", ErrFormat, line, len(cols))
		}
		rsq, err := strconv.ParseFloat(cols[6], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: Rsq %q", ErrFormat, line, cols[6])
		}

		m := Marker{
			Name:    cols[0],
			Allele1: strings.ToUpper(cols[1]),
			Allele2: strings.ToUpper(cols[2]),
			Quality: rsq,
		}
		m.RefAllele, m.OtherAllele = m.Allele2, m.Allele1
		markers = append(markers, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return markers, nil
}

// Columns of a BEAGLE r2/info row
const (
	beagleChromosome int = iota
	beagleName
	beaglePosition
	beagleAllele1
	beagleAllele2
	beagleQuality = 10
	beagleColumns = 13
)

// ReadBeagleInfo reads the marker summary of a BEAGLE dosage file pair. The
// header row is skipped.
func ReadBeagleInfo(r io.Reader, autosomes int) ([]Marker, error) {
	scanner := newLineScanner(r)

	// Header
	scanner.Scan()

	var markers []Marker
	line := 1
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) != beagleColumns {
			return nil, fmt.Errorf("%w: line %d of the BEAGLE info file has %d columns, expected %d", ErrFormat, line, len(cols), beagleColumns)
		}

		m := Marker{
			Name:    cols[beagleName],
			Allele1: strings.ToUpper(cols[beagleAllele1]),
			Allele2: strings.ToUpper(cols[beagleAllele2]),
		}
		var err error
		if m.Chromosome, err = ParseChromosome(cols[beagleChromosome], autosomes); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if m.Position, err = strconv.Atoi(cols[beaglePosition]); err != nil {
			return nil, fmt.Errorf("%w: line %d: position %q", ErrFormat, line, cols[beaglePosition])
		}
		for k := beagleAllele2 + 4; k < beagleColumns; k++ {
			v, err := strconv.ParseFloat(cols[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: column %d %q", ErrFormat, line, k+1, cols[k])
			}
			if k == beagleQuality {
				m.Quality = v
			}
		}
		m.RefAllele, m.OtherAllele = m.Allele2, m.Allele1
		markers = append(markers, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return markers, nil
}

// parseMACHIdentity splits a MACH sample token. "FAM->IND" names family and
// individual; a token without ">" is used as both.
func parseMACHIdentity(token string) (SampleKey, error) {
	parts := strings.SplitN(token, ">", 2)
	if len(parts) == 1 {
		return SampleKey{FamilyID: token, IndividualID: token}, nil
	}

	fid := strings.TrimSuffix(parts[0], "-")
	if fid == "" || parts[1] == "" {
		return SampleKey{}, fmt.Errorf("%w: sample identity %q", ErrFormat, token)
	}
	return SampleKey{FamilyID: fid, IndividualID: parts[1]}, nil
}

// ReadMACHDose reads a MACH .mldose file: one row per sample holding the
// sample identity, the dose type, and one dosage per registry marker. Only
// samples retained by filter and columns of the active markers are stored.
func ReadMACHDose(r io.Reader, markers *MarkerRegistry, active []MarkerIndex, filter DosageFilter) (*DosageData, error) {
	scanner := newLineScanner(r)

	out := &DosageData{}
	var rows [][]float32
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}

		key, err := parseMACHIdentity(cols[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !filter.Retain(key) {
			continue
		}
		if len(cols)-2 < markers.Len() {
			return nil, fmt.Errorf("%w: line %d of the MACH dose file has %d dosages but the info file lists %d markers", ErrConsistency, line, len(cols)-2, markers.Len())
		}

		row := make([]float32, len(active))
		for j, marker := range active {
			v, ok := parseDosage(cols[2+int(marker)])
			if !ok {
				out.MissingTokens++
			}
			row[j] = float32(v)
		}
		rows = append(rows, row)
		out.Samples = append(out.Samples, dosageSample(key.FamilyID, key.IndividualID))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out.Dosages = &DosageStore{nMarkers: len(active), rows: rows}
	return out, nil
}

// ReadBeagleDose reads a BEAGLE dosage file: a header of three descriptors
// followed by sample IDs, then one row per registry marker holding the
// marker name, two descriptors, and one dosage per sample.
func ReadBeagleDose(r io.Reader, markers *MarkerRegistry, active []MarkerIndex, filter DosageFilter) (*DosageData, error) {
	scanner := newLineScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: the BEAGLE dose file is empty", ErrFormat)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 3 {
		return nil, fmt.Errorf("%w: the BEAGLE dose header has %d columns", ErrFormat, len(header))
	}

	out := &DosageData{}
	var retained []int
	for k, id := range header[3:] {
		key := SampleKey{FamilyID: id, IndividualID: id}
		if !filter.Retain(key) {
			continue
		}
		retained = append(retained, k)
		out.Samples = append(out.Samples, dosageSample(id, id))
	}

	column := make([]int, markers.Len())
	for i := range column {
		column[i] = -1
	}
	for j, marker := range active {
		column[marker] = j
	}

	out.Dosages = NewDosageStore(len(retained), len(active))
	marker := 0
	for scanner.Scan() {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if marker >= markers.Len() {
			return nil, fmt.Errorf("%w: the BEAGLE dose file has more rows than the %d markers of the info file", ErrConsistency, markers.Len())
		}
		if name := markers.At(MarkerIndex(marker)).Name; cols[0] != name {
			return nil, fmt.Errorf("%w: row %d of the BEAGLE dose file is %q but the info file lists %q", ErrConsistency, marker+1, cols[0], name)
		}
		if len(cols)-3 < len(header)-3 {
			return nil, fmt.Errorf("%w: marker %q has %d dosages for %d samples", ErrConsistency, cols[0], len(cols)-3, len(header)-3)
		}

		if j := column[marker]; j >= 0 {
			for i, k := range retained {
				v, ok := parseDosage(cols[3+k])
				if !ok {
					out.MissingTokens++
				}
				out.Dosages.rows[i][j] = float32(v)
			}
		}
		marker++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if marker < markers.Len() {
		return nil, fmt.Errorf("%w: the BEAGLE dose file has %d rows but the info file lists %d markers", ErrConsistency, marker, markers.Len())
	}

	return out, nil
}

// ReadSampleEffects reads per-sample effect estimates: the family and
// individual IDs, then value/standard-error pairs of which the values are
// kept. Rows without any value are skipped.
func ReadSampleEffects(r io.Reader) (map[SampleKey][]float64, error) {
	scanner := newLineScanner(r)

	out := make(map[SampleKey][]float64)
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) < 3 {
			continue
		}

		var effects []float64
		for k := 2; k < len(cols); k += 2 {
			v, err := strconv.ParseFloat(cols[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: effect %q", ErrFormat, line, cols[k])
			}
			effects = append(effects, v)
		}
		out[SampleKey{FamilyID: cols[0], IndividualID: cols[1]}] = effects
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// EffectsSet returns the key set of a sample effects table, for use as
// DosageFilter.Effects.
func EffectsSet(effects map[SampleKey][]float64) SampleSet {
	s := make(SampleSet, len(effects))
	for k := range effects {
		s[k] = struct{}{}
	}
	return s
}
