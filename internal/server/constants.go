package server

import "time"

// HTTP server constants
const (
	// HTTP timeouts. Analyses may take up to two minutes, so the write
	// timeout leaves room for a slow backend.
	HTTPReadTimeout  = 15 * time.Second
	HTTPWriteTimeout = 150 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Shutdown timeout
	HTTPShutdownTimeout = 30 * time.Second

	// Product lookup limits
	MaxQueryLimit     = 100
	DefaultQueryLimit = 10

	// CORS preflight cache
	CORSMaxAge = 12 * time.Hour
)
