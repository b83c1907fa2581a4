// Package logger provides structured logging for statevault.
//
//   - logger.go: slog-backed Logger, per-instance levels, Nop logger
//   - context.go: context-carried logger and operation name
//   - redact.go: secret-bearing attribute redaction
//
// Snapshot contents are never logged; only version IDs, counts and checksums.
package logger
