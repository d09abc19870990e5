// Package job provides domain entities and business logic for the background
// job queue. It implements the Job aggregate root with the claim/complete/fail
// lifecycle the polling worker relies on.
//
// The package includes:
//   - Job: The aggregate root carrying type, payload, schedule, and attempts
//   - Status: A state machine that enforces valid queue status transitions
//   - Type: The closed set of pipeline stages a job can execute
//
// Key business rules:
//   - Jobs must reference a valid book and a known pipeline stage
//   - Queue status follows a defined workflow: Queued -> Running -> Completed/Failed
//   - Failed attempts requeue the job with exponential backoff until attempts
//     are exhausted, at which point the job terminally fails
//   - Only Queued jobs can be cancelled; stale Running claims are released back
//     to the queue without refunding the spent attempt
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package job
