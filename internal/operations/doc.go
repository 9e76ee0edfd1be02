// Package operations runs cleaning jobs asynchronously.
//
// A JobQueue owns a fixed pool of workers fed from a buffered channel. Each
// job is persisted in a JobStore and executed by a Runner, which reports
// step transitions back to the queue. The queue turns those into job
// progress, an ETA from ProgressTracker, and snapshots published through
// the StatusBroadcaster.
//
// The broadcaster is the single writer of job snapshots. Updates are applied
// sequentially and every change publishes the complete snapshot, so clients
// replace their copy instead of merging.
package operations
