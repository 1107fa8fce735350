// Package services defines the shared error taxonomy for operations that call
// external tools and remote APIs.
//
// Errors are tagged with one of the exported sentinels so callers can decide
// between fatal setup problems, external tool failures, and transient network
// trouble without string matching.
package services
