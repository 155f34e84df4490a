package similarity

// DefaultMinTonality separates harmonic frames from broadband ones. White
// noise folds to a tonality near 0.2; a triad scores above 0.8 and stays
// above 0.5 when mixed with noise of equal power.
const DefaultMinTonality = 0.35

const (
	bytesPerCell = 4

	smoothingHalfDivisor = 2
)
