// Package harness runs declarative YAML scenarios through the full
// authorization pipeline: capability registration, delegation-chain
// checks, the certificate state machine, and governance-ledger
// recording. Each flow step yields one trace event; traces are
// deterministic under the scenario's fixed clock and compared against
// golden files.
package harness
