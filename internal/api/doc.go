// Package api hosts the HTTP surface of the notifier. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /indexnow/key.txt and /{key}.txt serving the ownership key file.
//   - POST /v1/submissions and /v1/events for operators and content systems.
package api
