// Package httpserver runs the HTTP surface that exposes the active
// environment and diagnostics.
package httpserver
