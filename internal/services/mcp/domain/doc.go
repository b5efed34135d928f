// Package domain maps MCP tool calls onto receipt extraction and claim
// arithmetic.
//
// Handlers hold no state of their own: each call reads its input, runs the
// same code the web API runs and returns a structured result that MCP clients
// can render.
package domain
