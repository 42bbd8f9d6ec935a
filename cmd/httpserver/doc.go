// Package main (cmd/httpserver) runs the SimpleWeb application server.
//
// At startup the server loads its settings, selects exactly one storage
// provider from Storage:Type and registers the health probes. Any invalid or
// incomplete storage configuration stops the process before it listens.
//
// Settings come from an optional YAML file given with --config and from
// environment variables, which take precedence:
//
//	Storage__Type              0 (Local) or 1 (Remote)
//	Storage__FileName          default object name, or the bucket for Remote
//	Storage__BaseDir           Local storage directory
//	Storage__ConnectionString  Remote endpoint and credentials
//
// Example usage with local storage:
//
//	Storage__Type=0 Storage__BaseDir=/var/lib/simpleweb simpleweb \
//	    --listen-addr=0.0.0.0:8080 \
//	    --metrics-addr=0.0.0.0:8090
//
// Example usage with an S3-compatible bucket:
//
//	Storage__Type=1 Storage__FileName=uploads \
//	Storage__ConnectionString='AccessKey=minio;SecretKey=minio123;Endpoint=http://minio:9000;ForcePathStyle=true' \
//	simpleweb --config=./simpleweb.yaml --log-json
//
// The server shuts down gracefully on SIGINT/SIGTERM.
package main
