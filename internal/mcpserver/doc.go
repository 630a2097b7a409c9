// Package mcpserver adapts the tool dispatcher to a line-delimited JSON-RPC
// transport. Each input line holds one request envelope and produces exactly
// one response line on the output stream.
package mcpserver
