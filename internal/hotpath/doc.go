// Package hotpath is the zero-allocation dispatch lane for
// high-throughput invocations: compact contexts built from interner
// handles and registry indexes, bit-flag effect classification, a
// zero-copy command-line tokenizer, a bump arena for per-batch
// transients, and a bounded lock-free queue between producers and
// dispatch workers. Invocations that need full policy evaluation take
// the certificate pipeline instead.
package hotpath
