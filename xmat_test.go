package genodata

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xmatDataset(t *testing.T) *Dataset {
	return newTestDataset(t, autosomalMarkers(2), unrelatedSamples(3, SexUnknown), [][]byte{
		{3, 1, 2},
		{0, 0, 3},
	})
}

func TestMakeXMat(t *testing.T) {
	d := xmatDataset(t)

	X, err := d.MakeXMat(false)
	require.NoError(t, err)
	r, c := X.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)
	assert.Equal(t, 2.0, X.At(0, 0))
	assert.True(t, IsMissingDosage(X.At(1, 0)))
	assert.Equal(t, 1.0, X.At(2, 0))
	assert.Equal(t, 2.0, X.At(2, 1))

	X, err = d.MakeXMat(true)
	require.NoError(t, err)
	assert.Equal(t, 1.5, X.At(1, 0))
}

func TestMakeXMatRefAllele(t *testing.T) {
	d := xmatDataset(t)
	require.NoError(t, d.Markers.SetRefAllele(1, "A"))

	X, err := d.MakeXMat(false)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 0}, []float64{X.At(0, 1), X.At(1, 1), X.At(2, 1)})
}

func TestMakeXMatRequiresGenotypes(t *testing.T) {
	_, err := NewDataset().MakeXMat(false)
	assert.ErrorIs(t, err, ErrConsistency)
}

func TestStandardizeXMat(t *testing.T) {
	d := xmatDataset(t)
	X, err := d.MakeXMat(false)
	require.NoError(t, err)

	sd, err := d.StandardizeXMat(X, false, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.375, sd[0], 1e-12)
	assert.InDelta(t, 0.5, X.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, X.At(1, 0))
	assert.InDelta(t, -0.5, X.At(2, 0), 1e-12)

	X, err = d.MakeXMat(false)
	require.NoError(t, err)
	sd, err = d.StandardizeXMat(X, true, false)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(1/0.375), sd[0], 1e-12)
	assert.InDelta(t, 0.5*math.Sqrt(1/0.375), X.At(0, 0), 1e-12)
}

func TestStandardizeXMatMales(t *testing.T) {
	d := xmatDataset(t)
	require.NoError(t, d.Samples.SetSex(0, SexMale))
	require.NoError(t, d.Samples.SetSex(1, SexFemale))
	require.NoError(t, d.Samples.SetSex(2, SexFemale))

	X, err := d.MakeXMat(false)
	require.NoError(t, err)
	_, err = d.StandardizeXMat(X, false, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*math.Sqrt(0.5), X.At(0, 0), 1e-12)
	assert.InDelta(t, -0.5, X.At(2, 0), 1e-12)
}

func TestStandardizeXMatShape(t *testing.T) {
	d := xmatDataset(t)
	X, err := d.MakeXMat(false)
	require.NoError(t, err)

	require.NoError(t, d.ExcludeMarker("rsb"))
	_, err = d.StandardizeXMat(X, false, false)
	assert.ErrorIs(t, err, ErrConsistency)
}

const testXMat = "FID IID rsa rsb \n" +
	"Reference Allele G G \n" +
	"fia ia 2 0 \n" +
	"fib ib NA 0 \n" +
	"fic ic 1 2 \n"

func TestWriteXMat(t *testing.T) {
	d := xmatDataset(t)

	var buf bytes.Buffer
	require.NoError(t, d.WriteXMat(&buf, false))
	assert.Equal(t, testXMat, buf.String())

	buf.Reset()
	require.NoError(t, d.WriteXMat(&buf, true))
	assert.Contains(t, buf.String(), "fib ib 1.5 0 \n")
}

func TestSaveXMatCompressed(t *testing.T) {
	dir := t.TempDir()
	d := xmatDataset(t)

	for _, c := range []Compression{CompressionDisabled, CompressionGzip, CompressionZStandard} {
		path := filepath.Join(dir, "test.xmat"+c.Extension())
		require.NoError(t, d.SaveXMat(path, false, c), c.String())

		rc, err := OpenInput(path)
		require.NoError(t, err, c.String())
		data, err := io.ReadAll(rc)
		require.NoError(t, err, c.String())
		require.NoError(t, rc.Close())

		assert.Equal(t, testXMat, string(data), c.String())
	}
}
