package genodata

// Call is one hard genotype call. The two flags are the complements of the
// high and low bit of the packed two-bit code:
//
//	raw 00  Hi=true  Lo=true   homozygous allele-1, allele-2 dosage 0
//	raw 01  Hi=true  Lo=false  missing
//	raw 10  Hi=false Lo=true   heterozygous, allele-2 dosage 1
//	raw 11  Hi=false Lo=false  homozygous allele-2, allele-2 dosage 2
type Call struct {
	Hi bool
	Lo bool
}

var (
	CallHomAllele1 = Call{Hi: true, Lo: true}
	CallMissing    = Call{Hi: true, Lo: false}
	CallHet        = Call{Hi: false, Lo: true}
	CallHomAllele2 = Call{Hi: false, Lo: false}
)

// Missing reports whether the call carries no genotype. Only the exact flag
// pair (true, false) is missing; the flag sum alone cannot tell it apart
// from a heterozygote.
func (c Call) Missing() bool {
	return c.Hi && !c.Lo
}

// Dosage is the number of allele-2 copies of a non-missing call.
func (c Call) Dosage() float64 {
	var d float64 = 2
	if c.Hi {
		d--
	}
	if c.Lo {
		d--
	}
	return d
}

func callFromBits(v byte) Call {
	return Call{Hi: v&2 == 0, Lo: v&1 == 0}
}

func (c Call) bits() byte {
	var v byte
	if !c.Hi {
		v |= 2
	}
	if !c.Lo {
		v |= 1
	}
	return v
}

// CallMatrix holds hard calls marker-major: one row per marker, one column
// per sample, both in registry order.
type CallMatrix struct {
	nSamples int
	rows     [][]Call
}

// NewCallMatrix allocates an all-missing matrix.
func NewCallMatrix(nMarkers, nSamples int) *CallMatrix {
	m := &CallMatrix{
		nSamples: nSamples,
		rows:     make([][]Call, nMarkers),
	}
	for i := range m.rows {
		row := make([]Call, nSamples)
		for j := range row {
			row[j] = CallMissing
		}
		m.rows[i] = row
	}
	return m
}

func (m *CallMatrix) NMarkers() int { return len(m.rows) }
func (m *CallMatrix) NSamples() int { return m.nSamples }

func (m *CallMatrix) At(marker MarkerIndex, sample SampleIndex) Call {
	return m.rows[marker][sample]
}

func (m *CallMatrix) Set(marker MarkerIndex, sample SampleIndex, c Call) {
	m.rows[marker][sample] = c
}

// Row returns the calls of one marker; the slice is shared with the matrix.
func (m *CallMatrix) Row(marker MarkerIndex) []Call {
	return m.rows[marker]
}
