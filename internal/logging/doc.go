// Package logging builds the slog loggers used across Muster.
//
// It supplies console and JSON handlers, standardized field keys for
// coordination concepts (agent, run id, notification type), and no-op
// loggers for tests. Components receive a logger at construction and never
// write to the global slog default.
package logging
