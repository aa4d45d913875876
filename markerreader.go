package genodata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Map columns in the BIM file to their positions
const (
	bimChromosome int = iota
	bimName
	bimMorgans
	bimPosition
	bimAllele1
	bimAllele2
	bimColumns
)

// MarkerReader streams markers from a PLINK BIM file.
type MarkerReader struct {
	MarkersSeen int

	scanner   *bufio.Scanner
	autosomes int
	line      int
	err       error
}

// NewMarkerReader reads BIM rows from r. Chromosome labels are resolved
// against the given number of autosomes.
func NewMarkerReader(r io.Reader, autosomes int) *MarkerReader {
	return &MarkerReader{
		scanner:   newLineScanner(r),
		autosomes: autosomes,
	}
}

func (mr *MarkerReader) Error() error {
	if mr.err != nil {
		return mr.err
	}
	return mr.scanner.Err()
}

// Read returns the next marker, or nil at the end of input or on error.
func (mr *MarkerReader) Read() *Marker {
	for mr.err == nil && mr.scanner.Scan() {
		mr.line++
		cols := strings.Fields(mr.scanner.Text())
		if len(cols) == 0 {
			continue
		}

		m, err := mr.parse(cols)
		if err != nil {
			mr.err = err
			return nil
		}
		mr.MarkersSeen++

		return m
	}

	return nil
}

func (mr *MarkerReader) parse(cols []string) (*Marker, error) {
	if len(cols) < bimColumns {
		return nil, fmt.Errorf("%w: line %d of the BIM file has %d columns, expected %d", ErrFormat, mr.line, len(cols), bimColumns)
	}

	m := &Marker{
		Name:    cols[bimName],
		Allele1: strings.ToUpper(cols[bimAllele1]),
		Allele2: strings.ToUpper(cols[bimAllele2]),
	}

	var err error
	if m.Chromosome, err = ParseChromosome(cols[bimChromosome], mr.autosomes); err != nil {
		return nil, fmt.Errorf("line %d: %w", mr.line, err)
	}
	if m.GeneticDistance, err = strconv.ParseFloat(cols[bimMorgans], 64); err != nil {
		return nil, fmt.Errorf("%w: line %d: genetic distance %q", ErrFormat, mr.line, cols[bimMorgans])
	}
	if m.Position, err = strconv.Atoi(cols[bimPosition]); err != nil {
		return nil, fmt.Errorf("%w: line %d: position %q", ErrFormat, mr.line, cols[bimPosition])
	}
	m.RefAllele, m.OtherAllele = m.Allele2, m.Allele1

	return m, nil
}

// ReadBIM reads every marker of a BIM file.
func ReadBIM(r io.Reader, autosomes int) ([]Marker, error) {
	mr := NewMarkerReader(r, autosomes)

	var markers []Marker
	for m := mr.Read(); m != nil; m = mr.Read() {
		markers = append(markers, *m)
	}
	if err := mr.Error(); err != nil {
		return nil, err
	}

	return markers, nil
}
