package types

// PolicyHashFile is the on-disk shape of <crate>_policy_hashes.json,
// written after its own 64-hex summary-hash line.
//
// Invariant: the summary line equals
//
//	SHA-256( SHA-256(canonical-JSON(DependencyHashes)) || LocalSummaryHash )
//
// and LocalSummaryHash equals SHA-256(canonical-JSON(LocalImplHashes)).
// Dependency entries are conceptually sorted by crate name; Go's own
// encoding/json already emits map keys in sorted order, and the canonical
// pass in pkg/canonical additionally guarantees RFC 8785 normalization.
type PolicyHashFile struct {
	DependencyHashes map[string]string `json:"dependency_hashes"`
	LocalSummaryHash string            `json:"local_summary_hash"`
	LocalImplHashes  map[string]string `json:"local_impls_hashes"`
}

// DependencyEntry is one row of a sorted dependency roll-up: a package name
// paired with its already-computed summary hash.
type DependencyEntry struct {
	Name    string
	Summary string
}
