// Package managed reads administrator pushed configuration from the
// platform managed-config store, represented here as a YAML or JSON file,
// and can watch that file for changes.
package managed
