/*
Package httpserver implements the HTTP server for SimpleWeb.

It serves a few server-rendered pages, accepts file uploads into the single
storage provider selected at startup, and reports composite health.

# Identity

The signed-in user is taken from the X-MS-CLIENT-PRINCIPAL-NAME header set by
the fronting authentication proxy. The value is displayed as-is and never
verified; pages show "Not login yet" when it is absent.

# Pages

  - GET / - Home page
  - GET /Home/Privacy - Privacy policy
  - GET /Home/Upload - Upload form
  - POST /Home/Upload - Store a multipart upload (fields: file, name)
  - GET /Home/Error - Generic error page with the request id

# File API

  - PUT /api/files/{name} - Store the raw request body under name
  - GET /api/files/{name} - Stream a stored object

Storage errors map onto status codes:

  - invalid object name: 400
  - object not found: 404
  - request body over the upload limit: 413
  - storage backend unavailable: 503
  - anything else: 500

# Health and diagnostics

  - GET /health - Run every registered probe and report the worst status.
    Responds 503 when the aggregate is Unhealthy, 200 otherwise.
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

Prometheus metrics are served by a separate listener (see package metrics).
The pprof API is mounted under /debug when enabled.

# Usage

	handler, err := httpserver.NewHandler(provider, aggregator, metricsSrv, httpserver.HandlerConfig{
		DefaultName:    "upload.bin",
		MaxUploadBytes: 32 << 20,
	}, logger)
	if err != nil {
		return err
	}

	server := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               "0.0.0.0:8080",
		MetricsAddr:              "0.0.0.0:8090",
		Log:                      logger,
		DrainDuration:            45 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
	}, handler, metricsSrv)
	server.RunInBackground()
*/
package httpserver
