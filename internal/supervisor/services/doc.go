// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package services adapts Marquee components to suture.Service.

  - HTTPServerService turns ListenAndServe/Shutdown into a context-aware
    Serve with a bounded graceful shutdown.
  - ScheduledTask runs a TaskFunc on a ticker, optionally once at start,
    with a per-run timeout. Runs are recorded in the job metrics; a failed
    run is logged and the loop continues.

Each service implements fmt.Stringer so supervisor logs name it.
*/
package services
