// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := NewWithSeed(7)
	c2 := NewWithSeed(7)
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if !slices.Equal(c1.Distinct(5, 39), c2.Distinct(5, 39)) {
		t.Fatalf("Distinct mismatch")
	}
}

func TestDistinctRangeAndUniqueness(t *testing.T) {
	c := NewWithSeed(42)
	for i := 0; i < 2000; i++ {
		got := c.Distinct(5, 39)
		if len(got) != 5 {
			t.Fatalf("expected 5 numbers, got %v", got)
		}
		seen := map[int]bool{}
		for _, n := range got {
			if n < 1 || n > 39 {
				t.Fatalf("number out of range: %v", got)
			}
			if seen[n] {
				t.Fatalf("duplicate number: %v", got)
			}
			seen[n] = true
		}
	}
}

func TestDistinctFullPoolIsPermutation(t *testing.T) {
	c := NewWithSeed(3)
	got := c.Distinct(6, 6)
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("expected permutation of 1..6, got %v", got)
	}
}

func TestDistinctRejectsImpossibleRequest(t *testing.T) {
	c := NewWithSeed(1)
	for _, tc := range [][2]int{{0, 39}, {6, 5}, {1, 0}} {
		if got := c.Distinct(tc[0], tc[1]); got != nil {
			t.Fatalf("Distinct(%d,%d) expected nil, got %v", tc[0], tc[1], got)
		}
	}
}

func TestSnapshotRestoreReplays(t *testing.T) {
	c := NewWithSeed(99)
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := c.Distinct(5, 39)
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if again := c.Distinct(5, 39); !slices.Equal(first, again) {
		t.Fatalf("replay mismatch: %v vs %v", first, again)
	}
}

func TestBetween(t *testing.T) {
	c := NewWithSeed(5)
	for i := 0; i < 1000; i++ {
		v := c.Between(0, 999999)
		if v < 0 || v > 999999 {
			t.Fatalf("out of range: %d", v)
		}
	}
	if c.Between(4, 4) != 4 || c.Between(9, 2) != 9 {
		t.Fatalf("degenerate ranges must return lo")
	}
}
