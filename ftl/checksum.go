package ftl

import "github.com/OneOfOne/xxhash"

// pageChecksum computes a diagnostic xxhash64 of a committed page's
// payload, grounded on the teacher's util/hash_utils.go. It is surfaced
// through Block.lastChecksum purely for tests and operators; the FTL
// never consults it to make a correctness decision (SPEC_FULL §3
// explicitly keeps this out of the Non-goal "compression" territory —
// it is an integrity tag, not an encoding).
func pageChecksum(payload []byte) uint64 {
	h := xxhash.New64()
	h.Write(payload)
	return h.Sum64()
}
