package ioformat

import (
	"errors"
	"fmt"
)

// ErrIOFailure is the sentinel wrapped around any export write failure
// (spec.md §7 IOFailure, exit code 4 at the CLI boundary). Writers
// themselves return the underlying *os.PathError/encoder error directly;
// WrapIOFailure is for callers that need a uniform sentinel to test against
// with errors.Is.
var ErrIOFailure = errors.New("ioformat: write failed")

// WrapIOFailure wraps err so errors.Is(wrapped, ErrIOFailure) holds, or
// returns nil if err is nil.
func WrapIOFailure(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIOFailure, err)
}
