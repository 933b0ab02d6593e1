package pipeline

import "errors"

// ErrConfiguration marks a descriptor list that cannot be built into a
// pipeline: an unknown kind, a wrong parameter arity, or a domain-ordering
// violation. Configuration errors are fatal at build time and never
// silently defaulted.
var ErrConfiguration = errors.New("pipeline configuration error")
