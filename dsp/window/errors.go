package window

import (
	"errors"
	"fmt"
)

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
	errInvalidHop       = errors.New("window hop must be in (0, len(coeffs)]")

	// ErrUnknownType is returned by Parse for unrecognised window names.
	ErrUnknownType = errors.New("window: unknown type")
)

func unknownType(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownType, name)
}
