// Package logger builds the structured slog logger shared by every
// component: JSON output in prod, text output elsewhere, and service and
// environment attributes on every record.
package logger
