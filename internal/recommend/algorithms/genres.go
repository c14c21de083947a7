// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package algorithms

// defaultGenreWeight applies to genre codes missing from genreWeights.
const defaultGenreWeight = 0.5

// genreCodes maps TMDb genre names to codes.
var genreCodes = map[string]int{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"TV Movie":        10770,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}

// genreWeights is the base importance of a genre in content scoring.
var genreWeights = map[int]float64{
	28:    1.0, // Action
	12:    1.0, // Adventure
	10752: 1.0, // War
	878:   1.0, // Science Fiction
	14:    1.0, // Fantasy
	18:    0.9, // Drama
	10749: 0.9, // Romance
	53:    0.9, // Thriller
	35:    0.8, // Comedy
	10751: 0.8, // Family
	27:    0.7, // Horror
	99:    0.6, // Documentary
	10770: 0.5, // TV Movie
}

// GenreCode returns the TMDb code for a genre name.
func GenreCode(name string) (int, bool) {
	code, ok := genreCodes[name]
	return code, ok
}

// GenreCodes converts names to codes, skipping unknown names and duplicates.
func GenreCodes(names []string) []int {
	seen := make(map[int]struct{}, len(names))
	codes := make([]int, 0, len(names))
	for _, n := range names {
		code, ok := genreCodes[n]
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// GenreBaseWeight returns the base weight of code.
func GenreBaseWeight(code int) float64 {
	if w, ok := genreWeights[code]; ok {
		return w
	}
	return defaultGenreWeight
}
