package genodata

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAutosomeCount is the number of human autosomes.
const DefaultAutosomeCount = 22

// ParseChromosome takes the raw chromosome token of a marker file and
// returns its numeric code. Autosomes are 1..autosomes; the sex and
// mitochondrial chromosomes follow as autosomes+1 (X), autosomes+2 (Y) and
// autosomes+3 (MT). The pseudo-autosomal "XY" code is treated as X.
func ParseChromosome(token string, autosomes int) (int, error) {
	label := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(token, "chr"), "CHR"))

	switch label {
	case "X", "XY":
		return autosomes + 1, nil
	case "Y":
		return autosomes + 2, nil
	case "M", "MT":
		return autosomes + 3, nil
	}

	chr, err := strconv.Atoi(label)
	if err != nil || chr < 0 {
		return 0, fmt.Errorf("%w: chromosome %q", ErrFormat, token)
	}

	return chr, nil
}

// ChromosomeLabel takes a numeric chromosome code and returns its standard
// string translation.
func ChromosomeLabel(chr, autosomes int) string {
	switch chr {
	case autosomes + 1:
		return "X"
	case autosomes + 2:
		return "Y"
	case autosomes + 3:
		return "MT"
	}

	return strconv.Itoa(chr)
}
