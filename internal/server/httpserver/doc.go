// Package httpserver provides the HTTP side of `snapmesh-cli serve`.
//
// Endpoints:
//
//	GET /health          liveness
//	GET /metrics         Prometheus metrics
//	GET /messages        recent broadcast messages (?file=, ?limit=)
//	GET /messages/{id}   one message by ID
//
// Every route runs behind Recover, RequestID and an access log; CORS is
// added when origins are configured so a browser viewer can poll the feed.
package httpserver
