// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"slices"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzf's scoring tables are zero until a scheme is selected.
func init() {
	algo.Init("default")
}

// FuzzyResult is the outcome of matching one label against the filter
// pattern. A zero Score means no match.
type FuzzyResult struct {
	Score int

	// Positions are the rune indices of matched characters in
	// ascending order.
	Positions []int
}

// FuzzyMatch scores text against pattern with fzf's V2 algorithm.
// Matching is case-insensitive: the pattern is lowercased here and fzf
// folds the text. An empty pattern matches nothing. slab may be nil;
// passing one reuses scratch memory across calls.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	lowered := make([]rune, len(pattern))
	for index, r := range pattern {
		lowered[index] = unicode.ToLower(r)
	}
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = slices.Clone(*positions)
		slices.Sort(match.Positions)
	}
	return match
}
