package answer

import (
	"errors"
	"fmt"
)

var (
	ErrTokenOutOfRange = errors.New("token index out of range")
	ErrTokenPicked     = errors.New("token already picked")
)

// OrderBuilder accumulates ORDEN picks one token at a time. A token cannot be
// picked twice until it is undone.
type OrderBuilder struct {
	size   int
	picks  []int
	picked map[int]bool
}

// NewOrderBuilder returns a builder for an exercise with n tokens.
func NewOrderBuilder(n int) *OrderBuilder {
	return &OrderBuilder{size: n, picked: make(map[int]bool, n)}
}

// Pick appends token i to the answer.
func (b *OrderBuilder) Pick(i int) error {
	if i < 0 || i >= b.size {
		return fmt.Errorf("%w: %d of %d", ErrTokenOutOfRange, i, b.size)
	}
	if b.picked[i] {
		return fmt.Errorf("%w: %d", ErrTokenPicked, i)
	}
	b.picked[i] = true
	b.picks = append(b.picks, i)
	return nil
}

// Undo removes the most recent pick. It reports false when nothing was
// picked.
func (b *OrderBuilder) Undo() bool {
	if len(b.picks) == 0 {
		return false
	}
	last := b.picks[len(b.picks)-1]
	b.picks = b.picks[:len(b.picks)-1]
	delete(b.picked, last)
	return true
}

// Reset clears all picks.
func (b *OrderBuilder) Reset() {
	b.picks = nil
	clear(b.picked)
}

// Picked reports whether token i is already part of the answer.
func (b *OrderBuilder) Picked(i int) bool { return b.picked[i] }

// Complete reports whether every token has been picked.
func (b *OrderBuilder) Complete() bool { return len(b.picks) == b.size }

// Remaining returns the indices not yet picked, in ascending order.
func (b *OrderBuilder) Remaining() []int {
	out := make([]int, 0, b.size-len(b.picks))
	for i := 0; i < b.size; i++ {
		if !b.picked[i] {
			out = append(out, i)
		}
	}
	return out
}

// Candidate returns the picks so far as an Order candidate.
func (b *OrderBuilder) Candidate() Order {
	return Order{Picks: append([]int(nil), b.picks...)}
}
