// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package supervisor runs Marquee's long-lived services under suture v4.

The tree isolates failures by layer:

	RootSupervisor ("marquee")
	├── JobsSupervisor ("jobs-layer")
	│   ├── similarity-refresh
	│   ├── catalog-sync (TMDb configured)
	│   ├── trending-refresh, popular-refresh
	│   ├── batch-generation
	│   └── cleanup
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-listener
	└── APISupervisor ("api-layer")
	    └── http-server

A failing catalog sync is restarted inside the jobs layer while the API
keeps serving cached and stored recommendations.

Supervisor events (service start, failure, backoff) are logged through
sutureslog into the zerolog pipeline:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
	err = tree.Serve(ctx)

Services added to a layer must be removed from that layer; the root's
Remove only sees the three layer supervisors.
*/
package supervisor
