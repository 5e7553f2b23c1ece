package ecs

import "github.com/bits-and-blooms/bitset"

// ComponentID is a small integer identifying a component type, assigned
// once per type on first call to ComponentIDFor.
type ComponentID uint

// ComponentSignature is a bitset over component ids: the set of components
// an entity has, or the set a system requires.
type ComponentSignature struct {
	bits *bitset.BitSet
}

// NewSignature builds a signature containing the given component ids.
func NewSignature(ids ...ComponentID) ComponentSignature {
	sig := ComponentSignature{bits: bitset.New(64)}
	for _, id := range ids {
		sig.Set(id)
	}
	return sig
}

func (s *ComponentSignature) ensure() {
	if s.bits == nil {
		s.bits = bitset.New(64)
	}
}

// Set marks id as present in the signature.
func (s *ComponentSignature) Set(id ComponentID) {
	s.ensure()
	s.bits.Set(uint(id))
}

// Clear removes id from the signature.
func (s *ComponentSignature) Clear(id ComponentID) {
	s.ensure()
	s.bits.Clear(uint(id))
}

// Has reports whether id is present in the signature.
func (s ComponentSignature) Has(id ComponentID) bool {
	if s.bits == nil {
		return false
	}
	return s.bits.Test(uint(id))
}

// Contains reports whether s has every bit set in required — i.e.
// (s & required) == required.
func (s ComponentSignature) Contains(required ComponentSignature) bool {
	if required.bits == nil || required.bits.None() {
		return true
	}
	if s.bits == nil {
		return false
	}
	intersect := s.bits.Intersection(required.bits)
	return intersect.Equal(required.bits)
}
