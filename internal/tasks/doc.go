// Package tasks sequences batches of external API requests with real-time progress reporting.
//
// # Sequencing
//
// [Collect] runs a list of [Request] values through an [Executor] strictly one at a time:
//
//  1. Request n+1 is issued only after request n has resolved
//  2. Results come back in input order, one per request
//  3. The first failure aborts the batch and is returned as a [*BatchError]
//  4. Nothing is retried
//
// A [Sequencer] may carry a rate limiter (golang.org/x/time/rate) that paces every request it issues.
//
// # Progress Reporting
//
// [Sequencer.WithProgress] attaches a channel that receives one [ProgressUpdate] per completed request.
// Updates use select with default to prevent blocking.
package tasks
