// Package ffmpeg builds and runs ffmpeg/ffprobe invocations.
//
// Probe shells out to ffprobe for stream and duration information. The
// Command builder assembles deterministic argument lists for the encode,
// grid, and concat plans. Runner owns the lifecycle of one encode: it
// serializes invocations on a file lock, wires the progress bridge into the
// subprocess arguments, drains and classifies ffmpeg's stderr, and maps the
// exit status to an error.
package ffmpeg
