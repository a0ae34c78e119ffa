// Package download supplies the destination and resume contracts for
// dispatched downloads, plus the temp-file streaming machinery used by
// the default session manager.
//
// # Destinations
//
// A [Destination] is evaluated exactly once per completed download,
// with the temporary file location and the response, and decides where
// the file is persisted:
//
//	download.ToPath("/data/report.csv")
//	download.ToDir("/data") // name derived from the response
//
// # Resuming
//
// A [ResumeToken] is an opaque byte blob captured from an interrupted
// download. This package never interprets it; only the session manager
// that produced it can.
//
// # Streaming
//
// [Handle] writes a response body to a temporary file, verifies it,
// asks the Destination for the final location, and moves the file
// there. Most callers go through the facade in
// [github.com/adamwoolhether/reqkit] instead of calling Handle
// directly.
package download
