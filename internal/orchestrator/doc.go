// Package orchestrator runs the validate-and-generate pipeline as a
// background job behind a single worker and a single ordered dispatch
// channel.
//
// Simultaneously running jobs are bounded by a counter checked under lock
// before enqueue and decremented unconditionally when the worker finishes,
// whatever the outcome. Cancellation is cooperative: the worker consults the
// cancellation set at three safe points (before it starts processing a
// dequeued job, after setup, and after generation returns). A job cancelled
// mid-generation still finishes generating and is marked Cancelled at the
// last checkpoint, with its artifacts left unadvertised; a request arriving
// after that point does not change the outcome.
package orchestrator
