// Package logging builds slog loggers for the animutools commands and provides
// small attribute helpers so call sites stay terse.
//
// Two output formats are supported: a compact console handler meant for
// interactive use alongside the progress bar, and plain JSON for scripting.
// Loggers are constructed per invocation and passed down explicitly; nothing in
// this package mutates global logger state.
package logging
