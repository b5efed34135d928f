// Package service runs the claims MCP server over stdio or streamable HTTP and
// delegates tool behavior to the domain package.
package service
