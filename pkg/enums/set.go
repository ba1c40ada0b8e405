package enums

import (
	"fmt"
	"slices"
)

// lookup returns the member of known whose text equals value.
func lookup[T ~string](known []T, value, kind string) (T, error) {
	if i := slices.Index(known, T(value)); i >= 0 {
		return known[i], nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
