package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"Cage", "Cgae", 2},
		{"Animal", "Anmal", 1},
		{"Genotype", "Genotypes", 1},
		{"über", "uber", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			result := LevenshteinDistance(tt.s1, tt.s2)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", tt.s1, tt.s2, result, tt.expected)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Animal", "Cage", "CageStay", "Genotype", "Operator"}

	tests := []struct {
		name     string
		target   string
		opts     *FuzzyMatchOptions
		expected []string
	}{
		{
			name:     "exact match",
			target:   "Cage",
			expected: []string{"Cage"},
		},
		{
			name:     "transposition",
			target:   "Cgae",
			expected: []string{"Cage"},
		},
		{
			name:     "case insensitive",
			target:   "animal",
			expected: []string{"Animal"},
		},
		{
			name:     "case sensitive",
			target:   "cagestay",
			opts:     &FuzzyMatchOptions{MaxDistance: 1, CaseSensitive: true},
			expected: []string{},
		},
		{
			name:     "closest first",
			target:   "CageSty",
			expected: []string{"CageStay", "Cage"},
		},
		{
			name:     "limit suggestions",
			target:   "Cage",
			opts:     &FuzzyMatchOptions{MaxDistance: 10, MaxSuggestions: 2},
			expected: []string{"Cage", "CageStay"},
		},
		{
			name:     "no match too far",
			target:   "Solution",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("FindSimilar(%q) = %v; want %v", tt.target, result, tt.expected)
			}
		})
	}
}
