package genodata

// DosageLayout is the dialect of an imputed dosage file pair.
type DosageLayout uint32

const (
	LayoutMACH DosageLayout = iota
	LayoutBeagle
)

func (l DosageLayout) String() string {
	switch l {
	case LayoutMACH:
		return "MACH"
	case LayoutBeagle:
		return "BEAGLE"

	default:
		return "Illegal selection"
	}
}
