// Package handler implements the HTTP handlers that expose the active
// environment: reading the derived URLs, forcing a reload, choosing a
// pre-auth server and signing an account in or out.
package handler
