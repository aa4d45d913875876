package genodata

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sex follows the PLINK FAM coding, with SexUnset for samples loaded from
// dosage files that carry no pedigree information.
type Sex int

const (
	SexUnset   Sex = -9
	SexUnknown Sex = 0
	SexMale    Sex = 1
	SexFemale  Sex = 2
)

// MissingPhenotype is the phenotype of samples without one.
const MissingPhenotype = -9

// SampleKey is the composite identity of a sample.
type SampleKey struct {
	FamilyID     string
	IndividualID string
}

func (k SampleKey) String() string {
	return k.FamilyID + ":" + k.IndividualID
}

type Sample struct {
	FamilyID     string
	IndividualID string
	PaternalID   string
	MaternalID   string
	Sex          Sex
	Phenotype    float64
}

func (s Sample) Key() SampleKey {
	return SampleKey{FamilyID: s.FamilyID, IndividualID: s.IndividualID}
}

// SampleRegistry owns all samples of a dataset, in file order, and resolves
// sample keys to their index.
type SampleRegistry struct {
	samples []Sample
	byKey   map[SampleKey]SampleIndex
}

func NewSampleRegistry(samples []Sample) (*SampleRegistry, error) {
	r := &SampleRegistry{samples: samples}
	if err := r.reindex(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SampleRegistry) reindex() error {
	r.byKey = make(map[SampleKey]SampleIndex, len(r.samples))
	for i, s := range r.samples {
		if _, exists := r.byKey[s.Key()]; exists {
			return fmt.Errorf("%w: sample %s", ErrDuplicateKey, s.Key())
		}
		r.byKey[s.Key()] = SampleIndex(i)
	}
	return nil
}

func (r *SampleRegistry) Len() int { return len(r.samples) }

// At returns the sample at i. It panics if i is out of range.
func (r *SampleRegistry) At(i SampleIndex) Sample { return r.samples[i] }

func (r *SampleRegistry) Lookup(key SampleKey) (SampleIndex, bool) {
	i, ok := r.byKey[key]
	return i, ok
}

// SetSex assigns the sex of the sample at i.
func (r *SampleRegistry) SetSex(i SampleIndex, sex Sex) error {
	if !i.Valid(len(r.samples)) {
		return fmt.Errorf("%w: sample %d of %d", ErrIndexRange, i, len(r.samples))
	}
	r.samples[i].Sex = sex
	return nil
}

// CompactTo rewrites the registry so that it holds exactly the samples at
// keep, in that order.
func (r *SampleRegistry) CompactTo(keep []SampleIndex) error {
	out := make([]Sample, 0, len(keep))
	for _, i := range keep {
		if !i.Valid(len(r.samples)) {
			return fmt.Errorf("%w: sample %d of %d", ErrIndexRange, i, len(r.samples))
		}
		out = append(out, r.samples[i])
	}
	r.samples = out
	return r.reindex()
}

// ReadFAM reads the six-column PLINK pedigree file.
func ReadFAM(r io.Reader) ([]Sample, error) {
	scanner := newLineScanner(r)

	var samples []Sample
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 6 {
			return nil, fmt.Errorf("%w: line %d of the FAM file has %d columns, expected 6", ErrFormat, line, len(cols))
		}

		sex, err := strconv.Atoi(cols[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: sex code %q", ErrFormat, line, cols[4])
		}
		pheno, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			if cols[5] != "NA" {
				return nil, fmt.Errorf("%w: line %d: phenotype %q", ErrFormat, line, cols[5])
			}
			pheno = MissingPhenotype
		}

		samples = append(samples, Sample{
			FamilyID:     cols[0],
			IndividualID: cols[1],
			PaternalID:   cols[2],
			MaternalID:   cols[3],
			Sex:          Sex(sex),
			Phenotype:    pheno,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
