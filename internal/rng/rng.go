// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package rng provides the deterministic pseudo-random generator and seed
// mixer used by all procedural generation. Every generation decision in the
// game flows through a Source seeded via Mix; no other randomness is
// permitted in gameplay code, so identical inputs always reproduce identical
// worlds.
package rng

import "encoding/binary"

// FNV-1a 32-bit parameters. These are part of the generation contract and
// must never change: the byte layout of every generated chunk depends on them.
const (
	fnvOffset32 uint32 = 0x811C9DC5
	fnvPrime32  uint32 = 0x01000193
)

// Avalanche finalizer constants (Prospector's low-bias 32-bit mixer).
const (
	avalancheMul1 uint32 = 0x7FEB352D
	avalancheMul2 uint32 = 0x846CA68B
)

// zeroSeedSubstitute replaces a zero xorshift state, which would otherwise
// lock the generator at zero forever.
const zeroSeedSubstitute uint32 = 0x9E3779B9

// fold mixes four little-endian bytes of v into an FNV-1a state.
func fold(h, v uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	for _, b := range buf {
		h ^= uint32(b)
		h *= fnvPrime32
	}
	return h
}

// avalanche finishes a hash state so that every input bit affects every
// output bit.
func avalanche(h uint32) uint32 {
	h ^= h >> 16
	h *= avalancheMul1
	h ^= h >> 15
	h *= avalancheMul2
	h ^= h >> 16
	return h
}

// Mix derives a 32-bit seed from a world seed, a level, chunk coordinates and
// a label. The four integers are FNV-1a folded in order (each as four
// little-endian bytes), followed by the label bytes, then the avalanche
// finalizer. Any conforming implementation must return the same value for the
// same inputs.
func Mix(seed uint32, level, cx, cy int32, label string) uint32 {
	return MixSeq(label, seed, uint32(level), uint32(cx), uint32(cy))
}

// MixSeq is the variadic form of Mix for call sites that fold more than four
// integers (frontier expansion folds world, level, x, y and a direction
// code). Values are folded in argument order, then the label.
func MixSeq(label string, vals ...uint32) uint32 {
	h := fnvOffset32
	for _, v := range vals {
		h = fold(h, v)
	}
	for i := 0; i < len(label); i++ {
		h ^= uint32(label[i])
		h *= fnvPrime32
	}
	return avalanche(h)
}

// Source is a 32-bit xorshift generator with the (13, 17, 5) shift triple.
// It is deliberately tiny and allocation-free; a Source is constructed at the
// call site for each generation task and discarded afterwards.
//
// Source is not safe for concurrent use.
type Source struct {
	state uint32
}

// New creates a Source from a seed. A zero seed is substituted with a fixed
// non-zero constant since xorshift cannot leave the zero state.
func New(seed uint32) *Source {
	if seed == 0 {
		seed = zeroSeedSubstitute
	}
	return &Source{state: seed}
}

// Next returns the next 32-bit value.
func (s *Source) Next() uint32 {
	x := s.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.state = x
	return x
}

// IntN returns an integer in [min, max). Returns min when max <= min.
func (s *Source) IntN(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(s.Next()%uint32(max-min))
}

// Float01 returns a fraction in [0, 1], computed as Next() / (2^32 - 1).
func (s *Source) Float01() float64 {
	return float64(s.Next()) / 4294967295.0
}

// Shuffle permutes vals in place using Fisher-Yates driven by IntN.
func Shuffle[T any](s *Source, vals []T) {
	for i := len(vals) - 1; i > 0; i-- {
		j := s.IntN(0, i+1)
		vals[i], vals[j] = vals[j], vals[i]
	}
}
