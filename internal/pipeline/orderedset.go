package pipeline

// OrderedSet is a set that remembers first-insertion order.
type OrderedSet[T comparable] struct {
	index map[T]struct{}
	order []T
}

// NewOrderedSet returns an empty set with room for n elements.
func NewOrderedSet[T comparable](n int) *OrderedSet[T] {
	return &OrderedSet[T]{
		index: make(map[T]struct{}, n),
		order: make([]T, 0, n),
	}
}

// Add inserts v if it is not already present and reports whether it was added.
func (s *OrderedSet[T]) Add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Contains reports whether v is in the set.
func (s *OrderedSet[T]) Contains(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *OrderedSet[T]) Len() int {
	return len(s.order)
}

// Values returns the elements in first-insertion order. The slice is a copy.
func (s *OrderedSet[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}
