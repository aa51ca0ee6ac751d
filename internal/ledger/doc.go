// Package ledger implements the append-only governance log and its
// deterministic replay engine.
//
// ARCHITECTURE:
//
// Every authorization decision flows through Append, which assigns the
// next monotonic event id under a single writer lock, mirrors the event
// to the durable log if one is configured, and then makes it visible in
// memory. Queries snapshot under a read lock, so no reader (and in
// particular no replay) can observe a partially appended event.
//
// Durable layout:
// One JSON-serialized event per line, append-only. On reopen the log is
// scanned to recover the last assigned id; numbering resumes from there,
// so ids are never reused across restarts. A torn final line from a
// crash mid-append is dropped (the append was never acknowledged);
// corruption anywhere else refuses to open.
//
// Replay determinism:
// ReplayTimeslice and ReplayWithPolicy depend only on the events inside
// the requested range. Replaying the same slice any number of times
// yields identical counts and identical divergence reports. Replays
// never mutate the ledger.
//
// Security violations are recorded here as audit facts rather than
// raised as errors; they are data about what happened, not control flow.
package ledger
