// Package watch ingests log files from a directory as they appear.
//
// The Service observes filesystem events, debounces rapid writes to the same
// file, and hands stable files to the ingestion pipeline through a bounded
// worker pool. A failed ingestion is logged and the watch continues; the
// service never stops over a single bad file.
package watch
