// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"slices"
	"testing"
)

func TestFuzzyMatchBasic(t *testing.T) {
	result := FuzzyMatch("Open Recent", []rune("recent"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if !slices.Equal(result.Positions, []int{5, 6, 7, 8, 9, 10}) {
		t.Errorf("positions = %v, want 5..10", result.Positions)
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	result := FuzzyMatch("Auto save", []rune("asv"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous fuzzy match")
	}
	if !slices.IsSorted(result.Positions) || len(result.Positions) != 3 {
		t.Errorf("positions = %v, want three ascending indices", result.Positions)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := FuzzyMatch("Quit", []rune("xyz"), nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for no match, got %d", result.Score)
	}
	if len(result.Positions) != 0 {
		t.Errorf("expected no positions, got %v", result.Positions)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	for _, pattern := range []string{"quit", "QUIT", "QuIt"} {
		if result := FuzzyMatch("Quit Application", []rune(pattern), nil); result.Score <= 0 {
			t.Errorf("pattern %q: expected a match, got score=%d", pattern, result.Score)
		}
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	if result := FuzzyMatch("anything", []rune{}, nil); result.Score != 0 {
		t.Errorf("empty pattern scored %d", result.Score)
	}
}

func TestFuzzyMatchWholeLabel(t *testing.T) {
	result := FuzzyMatch("Quit", []rune("quit"), nil)
	if result.Score <= 0 {
		t.Fatalf("score = %d, want a positive score for an exact label", result.Score)
	}
	if !slices.Equal(result.Positions, []int{0, 1, 2, 3}) {
		t.Errorf("positions = %v, want [0 1 2 3]", result.Positions)
	}
	if prefix := FuzzyMatch("Quit", []rune("q"), nil); prefix.Score <= 0 {
		t.Errorf("single-rune score = %d, want positive", prefix.Score)
	}
}
