// Package graph models available capabilities as a typed directed graph.
//
// Nodes are registered capabilities with their schemas and effect
// profiles. Edges type the relationships between them: Produces,
// Requires, Equivalent, Dominates, and Custom.
//
// The graph answers the questions the authorization core needs before
// dispatch:
//
//   - Availability: the node set is the availability set consumed by the
//     certificate pipeline's capability check.
//   - Reachability and paths: can one capability's output feed another,
//     and by which route (BFS shortest path, bounded DFS enumeration).
//   - Dominance: does one capability subsume another's effects, either by
//     explicit edge or by strict effect-set superset.
//   - Equivalence: interchangeable capabilities, partitioned into classes.
//   - Composition: the minimal chain of capabilities turning one schema
//     into another.
//
// The graph is built once (normally from a manifest) and then shared
// read-only; queries never mutate it.
package graph
