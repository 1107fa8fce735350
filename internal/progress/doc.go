// Package progress bridges ffmpeg's -progress reporting into an interactive
// progress bar.
//
// ffmpeg is pointed at a loopback TCP address (tcp://127.0.0.1:<port>) and
// streams newline-delimited key=value pairs over the connection. The Listener
// owns the socket: it accepts a single connection per encode, splits the byte
// stream into lines, and hands each parsed Event to a Handler in wire order. A
// synthetic ("start", "connected") event precedes any data so consumers can
// tell an armed listener from an actively reporting encoder.
//
// The Driver is the standard Handler: it tracks the encode position against a
// known total duration (ffmpeg reports out_time_ms in microseconds) and
// animates a terminal progress bar through the armed -> running -> done
// lifecycle. Progress is cosmetic; every parse problem is tolerated and
// nothing in this package can fail an encode.
package progress
