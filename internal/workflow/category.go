package workflow

import "fmt"

// Category is one of the four rating axes of a part.
type Category int

const (
	X Category = iota // extremely cool looking
	M                 // musical
	A                 // aerodynamic
	S                 // shiny

	NumCategories = 4
)

var categoryNames = [NumCategories]byte{'x', 'm', 'a', 's'}

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return string(categoryNames[c])
}

func ParseCategory(b byte) (Category, error) {
	for i, name := range categoryNames {
		if name == b {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", b)
}
