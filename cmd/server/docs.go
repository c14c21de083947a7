// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// General API information for swag. The generated document lives in the
// docs package and is served at /swagger/index.html.
//
// @title Marquee API
// @version 1.0
// @description Hybrid movie recommendations over a TMDb catalog.
// @description
// @description Every response uses the envelope {status, data, metadata, error}.
// @description Errors carry a machine-readable code such as VALIDATION_ERROR or NOT_FOUND.
//
// @contact.name Marquee Authors
// @contact.url https://github.com/marquee-app/marquee/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Required when security.auth_mode is jwt; the path user must match the token subject.
//
// @tag.name Recommendations
// @tag.description Hybrid per-user lists and the general trending and popular lists
//
// @tag.name Interactions
// @tag.description Ratings, favorites and the interaction log
//
// @tag.name Catalog
// @tag.description Movies and genres synced from TMDb
package main
