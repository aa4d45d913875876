package genodata

import "fmt"

// Marker is one biallelic SNP as described by a BIM row or a dosage info
// file.
type Marker struct {
	Chromosome      int
	Name            string
	GeneticDistance float64
	Position        int
	Allele1         string
	Allele2         string

	// RefAllele is the allele whose copies the statistics count. It starts
	// out as Allele2, matching the dosage encoding of the genotype data.
	RefAllele   string
	OtherAllele string

	// Quality is the imputation Rsq, when one has been loaded.
	Quality float64
}

// CountsAllele2 reports whether the reference allele is Allele2, in which
// case a genotype's dosage is already the reference allele count.
func (m Marker) CountsAllele2() bool {
	return m.RefAllele == m.Allele2
}

// RefCount converts an allele-2 dosage into the number of reference alleles.
func (m Marker) RefCount(dosage float64) float64 {
	if m.CountsAllele2() {
		return dosage
	}
	return 2 - dosage
}

// MarkerRegistry owns all markers of a dataset, in file order, and resolves
// names to their index.
type MarkerRegistry struct {
	markers    []Marker
	byName     map[string]MarkerIndex
	hasQuality bool
}

// NewMarkerRegistry builds a registry over markers. A reference allele that
// is unset is initialized to Allele2.
func NewMarkerRegistry(markers []Marker) (*MarkerRegistry, error) {
	r := &MarkerRegistry{
		markers: markers,
	}
	for i := range r.markers {
		if r.markers[i].RefAllele == "" {
			r.markers[i].RefAllele = r.markers[i].Allele2
			r.markers[i].OtherAllele = r.markers[i].Allele1
		}
	}
	if err := r.reindex(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *MarkerRegistry) reindex() error {
	r.byName = make(map[string]MarkerIndex, len(r.markers))
	for i, m := range r.markers {
		if _, exists := r.byName[m.Name]; exists {
			return fmt.Errorf("%w: marker %q", ErrDuplicateKey, m.Name)
		}
		r.byName[m.Name] = MarkerIndex(i)
	}
	return nil
}

// Len is the number of registered markers.
func (r *MarkerRegistry) Len() int { return len(r.markers) }

// At returns the marker at i. It panics if i is out of range, like a slice.
func (r *MarkerRegistry) At(i MarkerIndex) Marker {
	return r.markers[i]
}

// Lookup resolves a marker name.
func (r *MarkerRegistry) Lookup(name string) (MarkerIndex, bool) {
	i, ok := r.byName[name]
	return i, ok
}

// HasQuality reports whether imputation quality values were loaded.
func (r *MarkerRegistry) HasQuality() bool { return r.hasQuality }

// SetQuality assigns the imputation quality of the marker at i.
func (r *MarkerRegistry) SetQuality(i MarkerIndex, q float64) error {
	if !i.Valid(len(r.markers)) {
		return fmt.Errorf("%w: marker %d of %d", ErrIndexRange, i, len(r.markers))
	}
	r.markers[i].Quality = q
	r.hasQuality = true
	return nil
}

// SetRefAllele makes allele the counted allele of the marker at i. The
// allele must be one of the marker's two alleles.
func (r *MarkerRegistry) SetRefAllele(i MarkerIndex, allele string) error {
	if !i.Valid(len(r.markers)) {
		return fmt.Errorf("%w: marker %d of %d", ErrIndexRange, i, len(r.markers))
	}
	m := &r.markers[i]
	switch allele {
	case m.Allele1:
		m.RefAllele, m.OtherAllele = m.Allele1, m.Allele2
	case m.Allele2:
		m.RefAllele, m.OtherAllele = m.Allele2, m.Allele1
	default:
		return fmt.Errorf("%w: reference allele %q is neither %q nor %q for marker %q", ErrFormat, allele, m.Allele1, m.Allele2, m.Name)
	}
	return nil
}

// CompactTo rewrites the registry so that it holds exactly the markers at
// keep, in that order, and rebuilds the name index.
func (r *MarkerRegistry) CompactTo(keep []MarkerIndex) error {
	out := make([]Marker, 0, len(keep))
	for _, i := range keep {
		if !i.Valid(len(r.markers)) {
			return fmt.Errorf("%w: marker %d of %d", ErrIndexRange, i, len(r.markers))
		}
		out = append(out, r.markers[i])
	}
	r.markers = out
	return r.reindex()
}
