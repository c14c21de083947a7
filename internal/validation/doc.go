// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the library with a thread-safe singleton validator, readable error
// messages and conversion to the API error envelope.
//
// # Overview
//
//   - Singleton validator (initialized once, caches struct info)
//   - Field names reported by their json tag
//   - half_step: custom tag for ratings on a 0.5 grid
//   - ToAPIError produces code VALIDATION_ERROR with field details
//
// # Quick Start
//
//	type RatingRequest struct {
//	    MovieID int     `json:"movie_id" validate:"required,gt=0"`
//	    Rating  float64 `json:"rating" validate:"gte=0.5,lte=5,half_step"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use.
package validation
