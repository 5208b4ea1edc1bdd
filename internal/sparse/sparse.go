// Package sparse provides a sparse set of small integer IDs.
//
// The analysis uses it to drop repeated edges of the subexpression call
// graph: membership tests and inserts are O(1) and clearing does not touch
// the backing arrays, so one set is reused for every group of a pattern.
package sparse

import "github.com/coregx/redoscheck/internal/conv"

// SparseSet is a set of uint32 values below a fixed capacity.
// The sparse array maps a value to its index in the dense array; a value is
// present only if the two agree, so stale entries left by Clear are ignored.
type SparseSet struct {
	sparse []uint32 // value -> index in dense
	dense  []uint32 // members in insertion order
}

// NewSparseSet creates a set that can hold values in [0, capacity).
func NewSparseSet(capacity int) *SparseSet {
	n := conv.IntToUint32(capacity)
	return &SparseSet{
		sparse: make([]uint32, n),
		dense:  make([]uint32, 0, n),
	}
}

// Insert adds value to the set and reports whether it was newly added.
// Panics if value is out of range.
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.sparse[value] = conv.IntToUint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *SparseSet) Contains(value uint32) bool {
	if int(value) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Len returns the number of members.
func (s *SparseSet) Len() int {
	return len(s.dense)
}

// IsEmpty reports whether the set has no members.
func (s *SparseSet) IsEmpty() bool {
	return len(s.dense) == 0
}

// Clear removes all members in O(1).
func (s *SparseSet) Clear() {
	s.dense = s.dense[:0]
}

// Values returns the members in insertion order.
// The slice is only valid until the next modification.
func (s *SparseSet) Values() []uint32 {
	return s.dense
}
