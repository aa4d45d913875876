package genodata

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineLength bounds one line of a text input. Dosage files put a whole
// sample or marker on a line.
const maxLineLength = 1 << 30

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}

// ReadMarkerList reads a list of marker names, taking the first token of
// every non-empty line.
func ReadMarkerList(r io.Reader) ([]string, error) {
	scanner := newLineScanner(r)

	var names []string
	for scanner.Scan() {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		names = append(names, cols[0])
	}

	return names, scanner.Err()
}

// ReadSampleList reads family and individual IDs from the first two tokens
// of every non-empty line.
func ReadSampleList(r io.Reader) ([]SampleKey, error) {
	scanner := newLineScanner(r)

	var keys []SampleKey
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 2 {
			return nil, fmt.Errorf("%w: line %d of the sample list has one column, expected family and individual IDs", ErrFormat, line)
		}
		keys = append(keys, SampleKey{FamilyID: cols[0], IndividualID: cols[1]})
	}

	return keys, scanner.Err()
}
