package genodata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardCall(t *testing.T) {
	cases := []struct {
		dosage   float64
		expected Call
	}{
		{0, CallHomAllele1},
		{0.4, CallHomAllele1},
		{0.5, CallHomAllele1},
		{0.6, CallHet},
		{1.0, CallHet},
		{1.49, CallHet},
		{1.5, CallHomAllele2},
		{1.6, CallHomAllele2},
		{2.0, CallHomAllele2},
		{MissingDosage, CallMissing},
		{1e5, CallMissing},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, HardCall(c.dosage), "dosage %v", c.dosage)
	}
}

func TestToHardCalls(t *testing.T) {
	s := NewDosageStore(3, 2)
	s.Set(0, 0, 0.4)
	s.Set(1, 0, 0.6)
	s.Set(2, 0, 1.6)
	s.Set(0, 1, MissingDosage)
	s.Set(1, 1, 1.5)

	m := s.ToHardCalls()
	require.Equal(t, 2, m.NMarkers())
	require.Equal(t, 3, m.NSamples())
	assert.Equal(t, []Call{CallHomAllele1, CallHet, CallHomAllele2}, m.Row(0))
	assert.Equal(t, []Call{CallMissing, CallHomAllele2, CallHomAllele1}, m.Row(1))
}

func TestParseDosage(t *testing.T) {
	for _, token := range []string{"X", "NA", "abc", ""} {
		v, ok := parseDosage(token)
		assert.False(t, ok, token)
		assert.True(t, IsMissingDosage(v), token)
	}

	v, ok := parseDosage("1.25")
	assert.True(t, ok)
	assert.Equal(t, 1.25, v)
}

func TestParseMACHIdentity(t *testing.T) {
	key, err := parseMACHIdentity("FAM1->IND1")
	require.NoError(t, err)
	assert.Equal(t, SampleKey{FamilyID: "FAM1", IndividualID: "IND1"}, key)

	key, err = parseMACHIdentity("IND2")
	require.NoError(t, err)
	assert.Equal(t, SampleKey{FamilyID: "IND2", IndividualID: "IND2"}, key)

	_, err = parseMACHIdentity("->IND3")
	assert.ErrorIs(t, err, ErrFormat)
}

const testMACHInfo = `SNP Al1 Al2 Freq1 MAF Quality Rsq
rs1 a g 0.6 0.4 0.9 0.95
rs2 C T 0.8 0.2 0.7 0.30
rs3 A C 0.5 0.5 0.9 0.88
`

func TestReadMACHInfo(t *testing.T) {
	markers, err := ReadMACHInfo(strings.NewReader(testMACHInfo))
	require.NoError(t, err)
	require.Len(t, markers, 3)

	assert.Equal(t, "A", markers[0].Allele1)
	assert.Equal(t, "G", markers[0].RefAllele)
	assert.Equal(t, 0.30, markers[1].Quality)

	_, err = ReadMACHInfo(strings.NewReader("SNP Al1 Al2 Freq1 MAF Quality R2\n"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ReadMACHInfo(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ReadMACHInfo(strings.NewReader("SNP Al1 Al2 Freq1 MAF Quality Rsq\nrs1 A G 0.6 0.4 0.9 high\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadMACHDose(t *testing.T) {
	markers, err := ReadMACHInfo(strings.NewReader(testMACHInfo))
	require.NoError(t, err)
	reg, err := NewMarkerRegistry(markers)
	require.NoError(t, err)

	dose := strings.Join([]string{
		"f1->i1 ML_DOSE 0.1 1.2 2.0",
		"f2->i2 ML_DOSE 1.9 X 0.4",
		"f3->i3 ML_DOSE NA 0.0 1.1",
		"f4->i4 ML_DOSE 1.0 1.0 1.0",
	}, "\n")

	filter := DosageFilter{
		Keep:   NewSampleSet([]SampleKey{{"f1", "i1"}, {"f2", "i2"}, {"f3", "i3"}}),
		Remove: NewSampleSet([]SampleKey{{"f1", "i1"}}),
	}
	data, err := ReadMACHDose(strings.NewReader(dose), reg, []MarkerIndex{0, 1}, filter)
	require.NoError(t, err)

	require.Len(t, data.Samples, 2)
	assert.Equal(t, SampleKey{"f2", "i2"}, data.Samples[0].Key())
	assert.Equal(t, SampleKey{"f3", "i3"}, data.Samples[1].Key())
	assert.Equal(t, 2, data.MissingTokens)

	assert.InDelta(t, 1.9, data.Dosages.At(0, 0), 1e-6)
	assert.True(t, IsMissingDosage(data.Dosages.At(0, 1)))
	assert.True(t, IsMissingDosage(data.Dosages.At(1, 0)))
	assert.InDelta(t, 0.0, data.Dosages.At(1, 1), 1e-6)
}

func TestReadMACHDoseShortRow(t *testing.T) {
	markers, err := ReadMACHInfo(strings.NewReader(testMACHInfo))
	require.NoError(t, err)
	reg, err := NewMarkerRegistry(markers)
	require.NoError(t, err)

	_, err = ReadMACHDose(strings.NewReader("f1->i1 ML_DOSE 0.1 1.2\n"), reg, identityMarkers(3), DosageFilter{})
	assert.ErrorIs(t, err, ErrConsistency)
}

const testBeagleInfo = `CHR SNP POS A1 A2 AF1 AF2 MAF INFO1 INFO2 R2 DR2 HWE
1 rs1 1000 A G 0.6 0.4 0.4 1 1 0.95 0.9 1
1 rs2 2000 C T 0.8 0.2 0.2 1 1 0.30 0.3 1
X rs3 3000 A C 0.5 0.5 0.5 1 1 0.88 0.8 1
`

func TestReadBeagleInfo(t *testing.T) {
	markers, err := ReadBeagleInfo(strings.NewReader(testBeagleInfo), DefaultAutosomeCount)
	require.NoError(t, err)
	require.Len(t, markers, 3)

	assert.Equal(t, 23, markers[2].Chromosome)
	assert.Equal(t, 3000, markers[2].Position)
	assert.Equal(t, 0.88, markers[2].Quality)

	_, err = ReadBeagleInfo(strings.NewReader("header\n1 rs1 1000 A G 0.6\n"), DefaultAutosomeCount)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ReadBeagleInfo(strings.NewReader("header\n1 rs1 1000 A G 0.6 0.4 0.4 1 1 0.95 0.9 1 extra\n"), DefaultAutosomeCount)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "14 columns")
}

func TestReadBeagleDose(t *testing.T) {
	markers, err := ReadBeagleInfo(strings.NewReader(testBeagleInfo), DefaultAutosomeCount)
	require.NoError(t, err)
	reg, err := NewMarkerRegistry(markers)
	require.NoError(t, err)

	dose := strings.Join([]string{
		"marker alleleA alleleB s1 s2 s3",
		"rs1 A G 0.1 1.0 1.9",
		"rs2 C T NA 0.5 0.5",
		"rs3 A C 2.0 0.0 1.2",
	}, "\n")

	filter := DosageFilter{Remove: NewSampleSet([]SampleKey{{"s2", "s2"}})}
	data, err := ReadBeagleDose(strings.NewReader(dose), reg, []MarkerIndex{0, 2}, filter)
	require.NoError(t, err)

	require.Len(t, data.Samples, 2)
	assert.Equal(t, "s3", data.Samples[1].IndividualID)
	assert.Equal(t, 0, data.MissingTokens)
	assert.InDelta(t, 0.1, data.Dosages.At(0, 0), 1e-6)
	assert.InDelta(t, 1.2, data.Dosages.At(1, 1), 1e-6)
	assert.InDelta(t, 2.0, data.Dosages.At(0, 1), 1e-6)
}

func TestReadBeagleDoseInconsistent(t *testing.T) {
	markers, err := ReadBeagleInfo(strings.NewReader(testBeagleInfo), DefaultAutosomeCount)
	require.NoError(t, err)
	reg, err := NewMarkerRegistry(markers)
	require.NoError(t, err)

	for name, dose := range map[string]string{
		"renamed":   "m a b s1\nrs1 A G 0.1\nrsX C T 0.2\nrs3 A C 0.3\n",
		"too few":   "m a b s1\nrs1 A G 0.1\nrs2 C T 0.2\n",
		"too many":  "m a b s1\nrs1 A G 0.1\nrs2 C T 0.2\nrs3 A C 0.3\nrs4 A C 0.3\n",
		"short row": "m a b s1 s2\nrs1 A G 0.1 0.2\nrs2 C T 0.2\nrs3 A C 0.3 0.3\n",
	} {
		_, err := ReadBeagleDose(strings.NewReader(dose), reg, identityMarkers(3), DosageFilter{})
		assert.ErrorIs(t, err, ErrConsistency, name)
	}
}

func TestReadSampleEffects(t *testing.T) {
	effects, err := ReadSampleEffects(strings.NewReader("f1 i1 0.5 0.1 -0.2 0.1\nf2 i2\nf3 i3 1.5 0.2\n"))
	require.NoError(t, err)

	assert.Len(t, effects, 2)
	assert.Equal(t, []float64{0.5, -0.2}, effects[SampleKey{"f1", "i1"}])
	assert.Equal(t, []float64{1.5}, effects[SampleKey{"f3", "i3"}])

	set := EffectsSet(effects)
	assert.True(t, set.Has(SampleKey{"f3", "i3"}))
	assert.False(t, set.Has(SampleKey{"f2", "i2"}))

	_, err = ReadSampleEffects(strings.NewReader("f1 i1 big 0.1\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDosageFilterRetain(t *testing.T) {
	a, b, c := SampleKey{"a", "a"}, SampleKey{"b", "b"}, SampleKey{"c", "c"}

	var unconfigured DosageFilter
	assert.True(t, unconfigured.Retain(a))

	f := DosageFilter{
		Keep:    NewSampleSet([]SampleKey{a, b, c}),
		Effects: NewSampleSet([]SampleKey{a, b}),
		Remove:  NewSampleSet([]SampleKey{b}),
	}
	assert.True(t, f.Retain(a))
	assert.False(t, f.Retain(b))
	assert.False(t, f.Retain(c))
}
