// Package observability provides logging, metrics, health checks, and
// graceful shutdown for the service.
//
// Logging is structured JSON via logrus. Metrics are Prometheus counters for
// access decisions and rate-limit rejections, exposed on the health port.
package observability
