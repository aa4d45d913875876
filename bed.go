package genodata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MagicNumber identifies a SNP-major PLINK BED file.
var MagicNumber = [3]byte{0x6c, 0x1b, 0x01}

// DecodeBED reads a BED stream holding nMarkers rows of nSamples calls and
// returns the calls of the active markers and samples. Rows and columns of
// the result follow the ascending order of the active sets.
func DecodeBED(r io.Reader, nSamples, nMarkers int, activeSamples []SampleIndex, activeMarkers []MarkerIndex) (*CallMatrix, error) {
	keepSample := make([]bool, nSamples)
	for _, i := range activeSamples {
		if !i.Valid(nSamples) {
			return nil, fmt.Errorf("%w: sample %d of %d", ErrIndexRange, i, nSamples)
		}
		keepSample[i] = true
	}
	keepMarker := make([]bool, nMarkers)
	for _, i := range activeMarkers {
		if !i.Valid(nMarkers) {
			return nil, fmt.Errorf("%w: marker %d of %d", ErrIndexRange, i, nMarkers)
		}
		keepMarker[i] = true
	}

	br := bufio.NewReader(r)

	var magic [3]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTruncatedFile, err)
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("%w: the header is expected to resolve to %v but instead resolved to %v", ErrBadMagic, MagicNumber[:], magic[:])
	}

	rowLength := packedRowLength(nSamples)
	buffer := make([]byte, rowLength)

	m := &CallMatrix{nSamples: len(activeSamples)}
	for marker := 0; marker < nMarkers; marker++ {
		if !keepMarker[marker] {
			if n, err := br.Discard(rowLength); err != nil {
				return nil, fmt.Errorf("%w: marker %d: skipped %d of %d bytes", ErrTruncatedFile, marker, n, rowLength)
			}
			continue
		}

		if _, err := io.ReadFull(br, buffer); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: marker %d", ErrTruncatedFile, marker)
			}
			return nil, err
		}
		m.rows = append(m.rows, unpackRow(make([]Call, 0, len(activeSamples)), buffer, keepSample))
	}

	return m, nil
}

// EncodeBED writes the magic number followed by the calls of markers x
// samples, marker-major, in the order given.
func EncodeBED(w io.Writer, m *CallMatrix, markers []MarkerIndex, samples []SampleIndex) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(MagicNumber[:]); err != nil {
		return err
	}

	window := make([]Call, 0, callsPerByte)
	for _, marker := range markers {
		if !marker.Valid(m.NMarkers()) {
			return fmt.Errorf("%w: marker %d of %d", ErrIndexRange, marker, m.NMarkers())
		}
		row := m.Row(marker)
		for start := 0; start < len(samples); start += callsPerByte {
			window = window[:0]
			for k := start; k < start+callsPerByte && k < len(samples); k++ {
				if !samples[k].Valid(m.NSamples()) {
					return fmt.Errorf("%w: sample %d of %d", ErrIndexRange, samples[k], m.NSamples())
				}
				window = append(window, row[samples[k]])
			}
			if err := bw.WriteByte(packCalls(window)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}
