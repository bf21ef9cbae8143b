package layout

import (
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// ErrInvalidLayout is wrapped by every error Validate returns.
var ErrInvalidLayout = errors.New("invalid layout")

// Validate checks that every block has a non-empty id and that ids are unique.
// All problems are reported together.
func Validate(l domain.Layout) error {
	var errs []error
	seen := make(map[string]int, len(l))
	for i, b := range l {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("%w: block %d has no id", ErrInvalidLayout, i))
			continue
		}
		if first, dup := seen[b.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: id %q used by blocks %d and %d", ErrInvalidLayout, b.ID, first, i))
			continue
		}
		seen[b.ID] = i
	}
	return errors.Join(errs...)
}
