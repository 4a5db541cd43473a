// Package logging builds the slog loggers used across callboard and provides
// typed attribute helpers so call sites stay consistent. Console output is a
// compact human-readable line format; JSON output is for log shipping.
package logging
