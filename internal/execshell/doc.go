// Package execshell wraps external command execution with structured logging,
// typed failures, and human-readable lifecycle messages for git invocations.
package execshell
