// Package display renders the supervisor's line stream.
//
// Print is the plain sink: one entry per line on a writer. RunTUI is the
// interactive sink: a header with the endpoint, session state and message
// count above a scrolling view of the most recent entries.
package display
