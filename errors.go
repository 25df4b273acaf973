package alternative

import "errors"

var (
	// ErrNotConstant is returned when a key's identifiers can't be fixed at
	// build time.
	ErrNotConstant = errors.New("identifier is not a build-time constant")

	// ErrLayout is returned when the blocks of a site can't be reconciled
	// to one slot size.
	ErrLayout = errors.New("impossible site layout")

	// ErrLinked is returned when a Builder is used after Link.
	ErrLinked = errors.New("builder already linked")
)
