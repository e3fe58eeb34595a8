package dataset

import (
	"errors"
	"fmt"
)

// ErrInvalidClasses is returned when a class table cannot be decoded against.
var ErrInvalidClasses = errors.New("invalid class table")

// Source is the dataset source name registered with every class.
const Source = "overlay3d"

// ClassRange assigns every label value in [Lo, Hi) to one class.
type ClassRange struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Lo   int    `json:"lo"`
	Hi   int    `json:"hi"`
}

// Contains reports whether the label value falls in the range.
func (c ClassRange) Contains(v int) bool {
	return v >= c.Lo && v < c.Hi
}

// DefaultClasses is the label value partition of the overlay3d renders.
// Order matters: instances are emitted class by class in this order.
var DefaultClasses = []ClassRange{
	{ID: 1, Name: "cup", Lo: 40, Hi: 80},
	{ID: 2, Name: "carton", Lo: 80, Hi: 120},
}

// ValidateClasses checks that the ranges are non-empty, disjoint and carry
// positive, unique class ids. Id 0 is reserved for background.
func ValidateClasses(classes []ClassRange) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidClasses)
	}

	ids := make(map[int]bool, len(classes))
	for i, c := range classes {
		if c.ID <= 0 {
			return fmt.Errorf("%w: class %q has id %d", ErrInvalidClasses, c.Name, c.ID)
		}
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate class id %d", ErrInvalidClasses, c.ID)
		}
		ids[c.ID] = true

		if c.Lo < 0 || c.Hi <= c.Lo || c.Hi > 1<<16 {
			return fmt.Errorf("%w: class %q has range [%d, %d)", ErrInvalidClasses, c.Name, c.Lo, c.Hi)
		}

		for _, o := range classes[:i] {
			if c.Lo < o.Hi && o.Lo < c.Hi {
				return fmt.Errorf("%w: classes %q and %q overlap", ErrInvalidClasses, o.Name, c.Name)
			}
		}
	}

	return nil
}

// ClassName returns the name for a class id, "BG" for background.
func ClassName(classes []ClassRange, id int) string {
	if id == 0 {
		return "BG"
	}
	for _, c := range classes {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
