// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package bloomfilter implements a standard Bloom filter used by the
// garbage collector to accelerate its fallback scan: a filter built once
// per run over every hash referenced by a live edition lets the collector
// skip the scan for objects that no live edition can reference, without
// ever risking a false negative.
package bloomfilter

import (
	"hash/fnv"
	"math"
)

// Filter is a fixed-size Bloom filter over arbitrary byte-slice keys. It
// never reports Contains(x) == false for an x that was Added; a
// Contains(x) == true response for an x never Added is the proverbial
// "maybe" — the caller falls back to an authoritative check.
type Filter struct {
	bits []uint64
	m    uint
	k    uint
}

// NewFilter returns a filter sized for n expected entries at false
// positive probability fpr, using the standard optimal-parameter
// formulas: m = -n*ln(fpr)/ln(2)^2 bits, k = (m/n)*ln(2) hash functions.
func NewFilter(n int, fpr float64) *Filter {
	if n < 1 {
		n = 1
	}
	if fpr <= 0 || fpr >= 1 {
		fpr = 0.01
	}

	m := uint(math.Ceil(-float64(n) * math.Log(fpr) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	k := uint(math.Round((float64(m) / float64(n)) * math.Ln2))
	if k < 1 {
		k = 1
	}

	return &Filter{
		bits: make([]uint64, (m+63)/64),
		m:    m,
		k:    k,
	}
}

// Add records key in the filter.
func (f *Filter) Add(key []byte) {
	h1, h2 := hashPair(key)
	for i := uint(0); i < f.k; i++ {
		f.setBit(combine(h1, h2, i) % uint64(f.m))
	}
}

// Contains reports whether key may have been added. False means key was
// definitely never added; true means it was, or — with probability bounded
// by the false positive rate the filter was constructed with — it wasn't.
func (f *Filter) Contains(key []byte) bool {
	h1, h2 := hashPair(key)
	for i := uint(0); i < f.k; i++ {
		if !f.getBit(combine(h1, h2, i) % uint64(f.m)) {
			return false
		}
	}
	return true
}

func (f *Filter) setBit(pos uint64) {
	f.bits[pos/64] |= 1 << (pos % 64)
}

func (f *Filter) getBit(pos uint64) bool {
	return f.bits[pos/64]&(1<<(pos%64)) != 0
}

// combine implements Kirsch-Mitzenmacher double hashing: the i-th hash is
// derived from two independent base hashes instead of computing k
// genuinely independent hash functions.
func combine(h1, h2 uint64, i uint) uint64 {
	return h1 + uint64(i)*h2
}

func hashPair(key []byte) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write(key)
	sum1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write(key)
	sum2 := h2.Sum64()

	return sum1, sum2
}
