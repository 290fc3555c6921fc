// Package logger provides slog attribute helpers shared by the SDK's
// components. Helpers return an empty slog.Attr for zero values (nil error,
// empty ID), so call sites never need conditional logging arguments.
package logger
