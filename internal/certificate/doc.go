// Package certificate implements the staged pipeline that turns a
// claimed invocation into a verified proof object.
//
// The stages are distinct Go types, each wrapping the certificate record
// in an unexported field:
//
//	Build → Unchecked → WithPolicyCheck → PolicyChecked
//	      → WithCapabilityCheck → CapabilityChecked
//	      → Verify → Verified
//
// Transitions are strictly forward. Each one consumes an external proof
// (a policy verdict, or the current availability set) and returns a new
// value in the next stage; there is no operation that regresses a stage
// and no way to construct a later stage directly, because the record
// field is unexported. Only Verified exposes accessors a handler can
// use. This is the closest Go gets to the compile-time state tags the
// design calls for: the illegal transitions simply do not type-check.
//
// Expiry is re-checked at the Verify step, so a certificate that cleared
// the policy and capability checks can still fail if time has elapsed.
// Import re-validates expiry the same way.
//
// The pipeline itself performs no I/O. Policy verdicts and availability
// sets are supplied by the caller; recording the outcome in the
// governance ledger is the caller's job too.
package certificate
