// Package timeouts defines shared timeout constants used across the claims
// services.
package timeouts

import "time"

// HealthProbe caps how long the operator CLI waits for a gRPC health check.
const HealthProbe = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Write limits how long an HTTP handler may take to write a response,
// including spreadsheet generation.
const Write = 60 * time.Second

// Idle limits keep-alive connections.
const Idle = 120 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
