// Package queue runs the worker pool that drains the durable processing
// queue.
//
// A Manager polls the queue on a timer, claims ready entries and hands
// each one to a pool worker, which runs the entry's full ingestion chain
// before taking the next. Claim races between concurrent workers are
// benign: the loser re-polls. Failed entries are requeued with backoff
// until their retry budget runs out; completed entries are retained for
// inspection.
package queue
