// Package config loads and validates the animutools TOML configuration.
//
// Configuration lives at ~/.config/animutools/config.toml by default. Load
// falls back to built-in defaults when the file is absent so the tools work
// out of the box with ffmpeg/ffprobe on PATH. Paths support ~ expansion.
package config
