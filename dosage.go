package genodata

import (
	"strconv"
)

const (
	// MissingDosage is stored for dosage values that were absent or
	// unparseable.
	MissingDosage = 1e6

	// missingDosageThreshold separates real dosages from the sentinel.
	missingDosageThreshold = 1e5
)

// IsMissingDosage reports whether v is the missing sentinel.
func IsMissingDosage(v float64) bool {
	return v >= missingDosageThreshold
}

// DosageStore holds imputed allele-2 dosages sample-major: one row per
// sample, one column per marker, both in registry order.
type DosageStore struct {
	nMarkers int
	rows     [][]float32
}

func NewDosageStore(nSamples, nMarkers int) *DosageStore {
	s := &DosageStore{
		nMarkers: nMarkers,
		rows:     make([][]float32, nSamples),
	}
	for i := range s.rows {
		s.rows[i] = make([]float32, nMarkers)
	}
	return s
}

func (s *DosageStore) NSamples() int { return len(s.rows) }
func (s *DosageStore) NMarkers() int { return s.nMarkers }

func (s *DosageStore) At(sample SampleIndex, marker MarkerIndex) float64 {
	return float64(s.rows[sample][marker])
}

func (s *DosageStore) Set(sample SampleIndex, marker MarkerIndex, v float64) {
	s.rows[sample][marker] = float32(v)
}

// ToHardCalls converts the store into hard calls: the sentinel becomes
// missing, dosages of at least 1.5 homozygous allele-2, dosages above 0.5
// heterozygous, and everything else homozygous allele-1.
func (s *DosageStore) ToHardCalls() *CallMatrix {
	m := NewCallMatrix(s.nMarkers, len(s.rows))
	for i, row := range s.rows {
		for j, v := range row {
			m.rows[j][i] = HardCall(float64(v))
		}
	}
	return m
}

// HardCall converts one allele-2 dosage into a hard call.
func HardCall(d float64) Call {
	switch {
	case IsMissingDosage(d):
		return CallMissing
	case d >= 1.5:
		return CallHomAllele2
	case d > 0.5:
		return CallHet
	default:
		return CallHomAllele1
	}
}

// parseDosage reads one dosage token. "X", "NA" and anything that is not
// a number yield the sentinel, reported through ok.
func parseDosage(token string) (v float64, ok bool) {
	if token == "X" || token == "NA" {
		return MissingDosage, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return MissingDosage, false
	}
	return v, true
}
