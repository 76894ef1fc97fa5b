// Package ibn implements the intent reconciliation core: reading remote
// intent state, computing structural diffs, issuing the minimal writes,
// running audit/synchronize operations, and cascading intent-type
// deletion.
//
// All reconciliation is synchronous and single-threaded per invocation.
// Idempotent re-invocation is the only recovery mechanism after an
// interrupted run, which is why the diff-based design always converges
// to a no-op on a second identical call.
package ibn
