// Package mintauth sequences proof verification, threshold-signature
// verification, and governance freshness checks into one atomic mint
// authorization decision, and keeps the append-only audit trail.
//
// Overview:
//   - Submission carries (proof, public inputs, threshold signature)
//   - The pipeline is fail-closed: any rejection leaves all state unchanged
//   - Admitted mints advance the license nonce by exactly one and append a
//     ledger Record that never reveals the amount
//   - Observable side effects flow through the event bus as public data only
//
// Mutating operations assume an external total-order mechanism; a single
// mutex serializes them here.
package mintauth
