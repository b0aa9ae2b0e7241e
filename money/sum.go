package money

import (
	"golang.org/x/exp/constraints"
)

func Sum[T constraints.Integer | constraints.Float](values []T) (total T) {
	for _, value := range values {
		total += value
	}
	return total
}
