package centerline

import "errors"

// ErrEmptyTargetSet is returned by CLI-level callers when Extract is asked
// to run with no target vertices at all (spec.md §7 EmptySelection, exit
// code 2).
var ErrEmptyTargetSet = errors.New("centerline: empty target vertex set")

// ErrUnreachableTarget marks a target vertex that stayed unreached even
// after frontier expansion (spec.md §7 UnreachableTarget). Extract itself
// skips such targets and continues with the rest (spec.md's documented
// recovery policy); this sentinel is for CLI-level wrappers that want to
// report which targets were dropped rather than silently proceeding.
var ErrUnreachableTarget = errors.New("centerline: target vertex not reached")
