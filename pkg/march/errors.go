package march

import "errors"

// ErrInputDimensionMismatch is returned by CLI-level callers when the input
// image is not a genuine 3D volume: they recover the panic Apply raises on
// that condition and report this error instead (spec.md §7
// InputDimensionMismatch, exit code 1 at the CLI boundary).
var ErrInputDimensionMismatch = errors.New("march: input image is not 3-dimensional")
