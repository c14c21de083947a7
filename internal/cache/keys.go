// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package cache

import "fmt"

// SimilarityMatrixKey is the single global key holding the user-user matrix.
const SimilarityMatrixKey = "recommend:similarity:matrix"

// UserResultKey keys a user's hybrid result list for a given limit.
func UserResultKey(userID, limit int) string {
	return fmt.Sprintf("%s%d", UserResultPrefix(userID), limit)
}

// UserResultPrefix covers every cached result list for userID.
func UserResultPrefix(userID int) string {
	return fmt.Sprintf("recommend:user:%d:limit:", userID)
}

// GeneralResultKey keys a non-personalized list (trending, popular).
func GeneralResultKey(kind string, limit int) string {
	return fmt.Sprintf("recommend:general:%s:limit:%d", kind, limit)
}

// TMDbResponseKey caches one upstream catalog API response.
func TMDbResponseKey(endpoint, query string) string {
	return fmt.Sprintf("tmdb:%s?%s", endpoint, query)
}
