// Package metrics provides operational metrics collection for the claims
// service.
//
// # Metric Categories
//
//   - Latency: HTTP request duration histograms by route
//   - Usage: request counts by route and status, spreadsheets generated
//   - Extraction: receipt confidence histograms by category
//
// # Integration
//
// Metrics are recorded by the HTTP middleware and the receipt extractor and
// exposed in Prometheus format on /metrics.
package metrics
