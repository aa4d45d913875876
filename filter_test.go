package genodata

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frequencyDataset has five autosomal markers with MAF 0, 0.125, 0.25,
// 0.375 and undefined.
func frequencyDataset(t *testing.T) *Dataset {
	markers := autosomalMarkers(5)
	markers[2].Chromosome = 2
	markers[3].Chromosome = 3
	markers[4].Chromosome = 3

	return newTestDataset(t, markers, unrelatedSamples(4, SexFemale), [][]byte{
		{0, 0, 0, 0},
		{2, 0, 0, 0},
		{2, 2, 0, 0},
		{3, 3, 2, 0},
		{1, 1, 1, 1},
	})
}

func TestIntersectNamedSorted(t *testing.T) {
	lookup := func(k string) (MarkerIndex, bool) {
		i, ok := map[string]MarkerIndex{"a": 0, "b": 1, "c": 2, "d": 3}[k]
		return i, ok
	}

	got := IntersectNamed([]MarkerIndex{3, 1, 2, 0}, []string{"d", "a", "zz", "c"}, lookup)
	assert.Equal(t, []MarkerIndex{0, 2, 3}, got)

	got = SubtractNamed([]MarkerIndex{3, 1, 2, 0}, []string{"d", "zz"}, lookup)
	assert.Equal(t, []MarkerIndex{0, 1, 2}, got)
}

func TestExtractComposes(t *testing.T) {
	d := frequencyDataset(t)
	names := func(i MarkerIndex) string { return d.Markers.At(i).Name }

	require.NoError(t, d.ExtractMarkers([]string{names(3), names(1), names(0)}))
	require.NoError(t, d.ExtractMarkers([]string{names(1), names(2), names(3)}))
	assert.Equal(t, []MarkerIndex{1, 3}, d.ActiveMarkers)

	require.NoError(t, d.ExcludeMarkers([]string{names(3), "unknown"}))
	assert.Equal(t, []MarkerIndex{1}, d.ActiveMarkers)

	err := d.ExcludeMarkers([]string{names(1)})
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Empty(t, d.ActiveMarkers)
}

func TestExtractNothing(t *testing.T) {
	d := frequencyDataset(t)

	err := d.ExtractMarkers([]string{"unknown"})
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Empty(t, d.ActiveMarkers)
}

func TestExtractSingleMarker(t *testing.T) {
	d := frequencyDataset(t)

	assert.ErrorIs(t, d.ExtractMarker("unknown"), ErrEmptyResult)
	assert.ErrorIs(t, d.ExcludeMarker("unknown"), ErrNotFound)
	assert.Len(t, d.ActiveMarkers, 5)

	require.NoError(t, d.ExcludeMarker(d.Markers.At(0).Name))
	require.NoError(t, d.ExtractMarker(d.Markers.At(2).Name))
	assert.Equal(t, []MarkerIndex{2}, d.ActiveMarkers)
}

func TestExtractChromosomes(t *testing.T) {
	d := frequencyDataset(t)

	require.NoError(t, d.ExtractChromosomes(2, 3))
	assert.Equal(t, []MarkerIndex{2, 3, 4}, d.ActiveMarkers)

	require.NoError(t, d.ExtractChromosomes(3, 3))
	assert.Equal(t, []MarkerIndex{3, 4}, d.ActiveMarkers)

	assert.ErrorIs(t, d.ExtractChromosomes(23, 23), ErrEmptyResult)
}

func TestFilterMAF(t *testing.T) {
	d := frequencyDataset(t)

	require.NoError(t, d.FilterMAF(0.1))
	assert.Equal(t, []MarkerIndex{1, 2, 3}, d.ActiveMarkers)
	assert.True(t, math.IsNaN(d.Mu[4]))

	require.NoError(t, d.FilterMaxMAF(0.25))
	assert.Equal(t, []MarkerIndex{1, 2}, d.ActiveMarkers)

	assert.ErrorIs(t, d.FilterMAF(0.3), ErrEmptyResult)
}

func TestFilterMAFBoundary(t *testing.T) {
	d := frequencyDataset(t)

	// A marker whose MAF equals the threshold is dropped.
	require.NoError(t, d.FilterMAF(0.125))
	assert.Equal(t, []MarkerIndex{2, 3}, d.ActiveMarkers)
}

func TestFilterImputationQuality(t *testing.T) {
	d := frequencyDataset(t)
	log, hook := test.NewNullLogger()
	d.Log = log

	// Without quality scores the filter is a no-op.
	require.NoError(t, d.FilterImputationQuality(0.3))
	assert.Len(t, d.ActiveMarkers, 5)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	for i, q := range []float64{0.1, 0.3, 0.9, 0.2, 0.5} {
		require.NoError(t, d.Markers.SetQuality(MarkerIndex(i), q))
	}
	require.NoError(t, d.FilterImputationQuality(0.3))
	assert.Equal(t, []MarkerIndex{1, 2, 4}, d.ActiveMarkers)

	assert.ErrorIs(t, d.FilterImputationQuality(0.95), ErrEmptyResult)
	assert.Empty(t, d.ActiveMarkers)
}

func TestKeepRemoveSamples(t *testing.T) {
	d := frequencyDataset(t)
	keys := make([]SampleKey, d.Samples.Len())
	for i := range keys {
		keys[i] = d.Samples.At(SampleIndex(i)).Key()
	}

	require.NoError(t, d.KeepSamples([]SampleKey{keys[3], keys[0], keys[2]}))
	require.NoError(t, d.KeepSamples([]SampleKey{keys[2], keys[1], keys[3]}))
	assert.Equal(t, []SampleIndex{2, 3}, d.ActiveSamples)

	require.NoError(t, d.RemoveSamples([]SampleKey{keys[2], {FamilyID: "x", IndividualID: "y"}}))
	assert.Equal(t, []SampleIndex{3}, d.ActiveSamples)

	assert.ErrorIs(t, d.RemoveSamples(keys), ErrEmptyResult)
}

func TestSelectionFiles(t *testing.T) {
	dir := t.TempDir()
	d := frequencyDataset(t)

	extract := writeTestFile(t, dir, "extract.txt", d.Markers.At(4).Name+"\n\n"+d.Markers.At(0).Name+" trailing columns\n")
	keep := writeTestFile(t, dir, "keep.txt", "fia ia\nfic ic\n")
	remove := writeTestFile(t, dir, "remove.txt", "fic ic\n")

	require.NoError(t, d.ExtractMarkersFile(extract))
	assert.Equal(t, []MarkerIndex{0, 4}, d.ActiveMarkers)

	require.NoError(t, d.KeepSamplesFile(keep))
	require.NoError(t, d.RemoveSamplesFile(remove))
	assert.Equal(t, []SampleIndex{0}, d.ActiveSamples)

	bad := writeTestFile(t, dir, "bad.txt", "lonely\n")
	assert.ErrorIs(t, d.KeepSamplesFile(bad), ErrFormat)
}
