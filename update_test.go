package genodata

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateSex(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(1), unrelatedSamples(3, SexUnset), [][]byte{{0, 0, 0}})

	require.NoError(t, d.UpdateSex(strings.NewReader("fia ia M\nfib ib 2\nfic ic f\nnobody here 1\n")))
	assert.Equal(t, SexMale, d.Samples.At(0).Sex)
	assert.Equal(t, SexFemale, d.Samples.At(1).Sex)
	assert.Equal(t, SexFemale, d.Samples.At(2).Sex)

	err := d.UpdateSex(strings.NewReader("fia ia 1\nfib ib unknown\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestUpdateSexBadCodeForUnknownSample(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(1), unrelatedSamples(1, SexUnknown), [][]byte{{0}})

	err := d.UpdateSex(strings.NewReader("fia ia 1\nnobody here Q\n"))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, SexUnknown, d.Samples.At(0).Sex)
}

func TestUpdateSexUnlisted(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(1), unrelatedSamples(3, SexMale), [][]byte{{0, 0, 0}})

	err := d.UpdateSex(strings.NewReader("fia ia 2\nfib ib 2\n"))
	assert.ErrorIs(t, err, ErrUnresolvedSex)
	assert.Contains(t, err.Error(), "fic:ic")

	// An inactive sample may be left out, and becomes unknown.
	require.NoError(t, d.RemoveSamples([]SampleKey{d.Samples.At(2).Key()}))
	require.NoError(t, d.UpdateSex(strings.NewReader("fia ia 2\nfib ib 2\n")))
	assert.Equal(t, SexFemale, d.Samples.At(0).Sex)
	assert.Equal(t, SexUnknown, d.Samples.At(2).Sex)
}

func TestUpdateRefAllele(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(3), unrelatedSamples(2, SexUnknown), [][]byte{{3, 2}, {0, 0}, {0, 3}})
	log, hook := quietLogger()
	d.Log = log

	_, err := d.ComputeMeanDosage()
	require.NoError(t, err)
	require.Equal(t, 1.5, d.Mu[0])

	require.NoError(t, d.UpdateRefAllele(strings.NewReader("rsa a\nrsb G\nunknown A\n")))
	assert.Equal(t, "A", d.Markers.At(0).RefAllele)
	assert.Equal(t, "G", d.Markers.At(1).RefAllele)
	assert.Equal(t, 0.5, d.Mu[0])
	assert.Equal(t, 0.0, d.Mu[1])

	// One of the three markers was not listed.
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	err = d.UpdateRefAllele(strings.NewReader("rsa T\n"))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "line 1")
}

func TestUpdateRefAlleleAllOrNothing(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(2), unrelatedSamples(2, SexUnknown), [][]byte{{3, 2}, {0, 0}})
	_, err := d.ComputeMeanDosage()
	require.NoError(t, err)

	err = d.UpdateRefAllele(strings.NewReader("rsa A\nrsb Z\n"))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "line 2")

	// The valid first row was not applied either.
	assert.Equal(t, "G", d.Markers.At(0).RefAllele)
	assert.Equal(t, 1.5, d.Mu[0])
	assert.Equal(t, "G", d.Markers.At(1).RefAllele)
	assert.Equal(t, 0.0, d.Mu[1])
}

func TestUpdateImputationQuality(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(3), unrelatedSamples(1, SexUnknown), [][]byte{{0}, {0}, {0}})

	require.NoError(t, d.UpdateImputationQuality(strings.NewReader("rsa 0.9\nrsc 1.2\n")))
	assert.True(t, d.Markers.HasQuality())
	assert.Equal(t, 0.9, d.Markers.At(0).Quality)
	assert.Equal(t, 0.0, d.Markers.At(1).Quality)
	assert.Equal(t, 1.2, d.Markers.At(2).Quality)

	require.NoError(t, d.FilterImputationQuality(0.5))
	assert.Equal(t, []MarkerIndex{0, 2}, d.ActiveMarkers)

	for _, input := range []string{"rsa 2.5\n", "rsa -0.1\n", "rsa high\n", "rsa\n"} {
		assert.ErrorIs(t, d.UpdateImputationQuality(strings.NewReader(input)), ErrFormat, input)
	}
}

func TestUpdateFrequency(t *testing.T) {
	d := newTestDataset(t, autosomalMarkers(3), unrelatedSamples(1, SexUnknown), [][]byte{{0}, {0}, {0}})
	require.NoError(t, d.Markers.SetRefAllele(1, "A"))

	require.NoError(t, d.UpdateFrequency(strings.NewReader("rsa G 0.2\nrsb G 0.2\n")))
	assert.InDelta(t, 0.4, d.Mu[0], 1e-12)
	assert.InDelta(t, 1.6, d.Mu[1], 1e-12)
	assert.Equal(t, 0.0, d.Mu[2])

	// Loaded frequencies are not recomputed from the genotypes.
	require.NoError(t, d.FilterMAF(0.1))
	assert.Equal(t, []MarkerIndex{0, 1}, d.ActiveMarkers)

	assert.ErrorIs(t, d.UpdateFrequency(strings.NewReader("rsa T 0.2\n")), ErrFormat)
	assert.ErrorIs(t, d.UpdateFrequency(strings.NewReader("rsa G 1.2\n")), ErrFormat)
}

func TestUpdateFiles(t *testing.T) {
	dir := t.TempDir()
	d := newTestDataset(t, autosomalMarkers(2), unrelatedSamples(2, SexUnknown), [][]byte{{0, 0}, {0, 0}})

	require.NoError(t, d.UpdateSexFile(writeTestFile(t, dir, "sex.txt", "fia ia 1\nfib ib 2\n")))
	require.NoError(t, d.UpdateRefAlleleFile(writeTestFile(t, dir, "ref.txt", "rsa A\n")))
	require.NoError(t, d.UpdateImputationQualityFile(writeTestFile(t, dir, "rsq.txt", "rsa 0.5\nrsb 0.7\n")))
	require.NoError(t, d.UpdateFrequencyFile(writeTestFile(t, dir, "freq.txt", "rsa A 0.1\nrsb G 0.3\n")))

	assert.Equal(t, SexFemale, d.Samples.At(1).Sex)
	assert.Equal(t, "A", d.Markers.At(0).RefAllele)
	assert.Equal(t, 0.7, d.Markers.At(1).Quality)
	assert.InDelta(t, 0.2, d.Mu[0], 1e-12)
	assert.InDelta(t, 0.6, d.Mu[1], 1e-12)

	err := d.UpdateSexFile(writeTestFile(t, dir, "short.txt", "fia ia\n"))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "short.txt")
}
