package model

import (
	"cmp"
	"slices"
)

// WordCount is a word and how often it was seen.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PopularWords returns the n most popular words of counts.
//
// Words are ordered by count (highest first), then by length (longest
// first), then alphabetically. n <= 0 returns every word in that order.
func PopularWords(counts map[string]int, n int) []WordCount {
	words := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		words = append(words, WordCount{Word: w, Count: c})
	}

	slices.SortFunc(words, compareWordCount)

	if n > 0 && n < len(words) {
		words = words[:n]
	}
	return words
}

func compareWordCount(a, b WordCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(len(b.Word), len(a.Word)); c != 0 {
		return c
	}
	return cmp.Compare(a.Word, b.Word)
}
