// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package bloomfilter_test

import (
	"crypto/rand"
	"os"
	"testing"

	"github.com/codelynx/kronoa/pkg/bloomfilter"
)

var keys [][]byte
var nbKeysInFilter int
var totalNbKeys int
var falsePositiveProbability float64

// TestMain generates a million random keys; TestNoFalseNegative adds 95%
// of them to a filter and checks every one of the added keys is reported
// present.
func TestMain(m *testing.M) {
	totalNbKeys = 1000000
	nbKeysInFilter = 950000
	keys = generateKeys(totalNbKeys)
	falsePositiveProbability = 0.1
	os.Exit(m.Run())
}

func TestNoFalseNegative(t *testing.T) {
	filter := bloomfilter.NewFilter(len(keys), falsePositiveProbability)
	for _, key := range keys[:nbKeysInFilter] {
		filter.Add(key)
	}

	for _, key := range keys[:nbKeysInFilter] {
		if !filter.Contains(key) {
			t.Fatal("filter returned false negative")
		}
	}
}

func TestEmptyFilterContainsNothing(t *testing.T) {
	filter := bloomfilter.NewFilter(100, 0.01)
	if filter.Contains([]byte("never added")) {
		t.Fatal("empty filter reported a key as present")
	}
}

func generateKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		keys[i] = key
	}
	return keys
}
