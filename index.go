package genodata

// MarkerIndex is a position in a MarkerRegistry.
type MarkerIndex int

// SampleIndex is a position in a SampleRegistry.
type SampleIndex int

// Valid reports whether i addresses one of n entries.
func (i MarkerIndex) Valid(n int) bool { return i >= 0 && int(i) < n }

// Valid reports whether i addresses one of n entries.
func (i SampleIndex) Valid(n int) bool { return i >= 0 && int(i) < n }

func identityMarkers(n int) []MarkerIndex {
	out := make([]MarkerIndex, n)
	for i := range out {
		out[i] = MarkerIndex(i)
	}
	return out
}

func identitySamples(n int) []SampleIndex {
	out := make([]SampleIndex, n)
	for i := range out {
		out[i] = SampleIndex(i)
	}
	return out
}
