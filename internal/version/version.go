// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.1.0"
