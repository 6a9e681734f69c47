package workflow

import "fmt"

// Part holds one rating per category.
type Part [NumCategories]int

func (p Part) Rating() int {
	sum := 0
	for _, v := range p {
		sum += v
	}
	return sum
}

func (p Part) String() string {
	return fmt.Sprintf("{x=%d,m=%d,a=%d,s=%d}", p[X], p[M], p[A], p[S])
}
