// Package hints implements a second ftl.Type: the same round-robin
// allocation policy as the default, plus a per-block reserved page range
// (PageSpecial) and an explicit hook for distinguishing a GC-relocation
// read from an ordinary host read in Endio (spec §4.7, §9).
package hints

import "hostftl/ftl"

// Type reserves the last reservedPages host-page slots of every block
// (e.g. for an out-of-band metadata area) and runs a caller-supplied
// GC-read observer from Endio.
type Type struct {
	// ReservedPages is the number of trailing in-block page offsets
	// alloc_phys must refuse, reporting the block full early.
	ReservedPages uint32

	// NrHostPagesInBlk mirrors the FTL's own block geometry so
	// PageSpecial can compute the reserved boundary without reaching
	// into FTL internals.
	NrHostPagesInBlk uint32

	// OnGCRead, if set, is invoked from Endio for every read whose
	// RequestWrapper was tagged as a GC-relocation read by the caller's
	// own bookkeeping (hostftl has no GC implementation of its own, so
	// this is exercised by tests standing in for one).
	OnGCRead func(log ftl.LogAddr, addr ftl.PhysAddr)

	base ftl.Type
}

// New returns a hints.Type reserving the last reservedPages page offsets
// of every nrHostPagesInBlk-sized block.
func New(nrHostPagesInBlk, reservedPages uint32) *Type {
	return &Type{
		ReservedPages:    reservedPages,
		NrHostPagesInBlk: nrHostPagesInBlk,
		base:             ftl.NewDefaultType(),
	}
}

// PageSpecial rejects the trailing ReservedPages offsets of a block,
// forcing AppendPoint.allocAddrLocked to roll over to a fresh block before
// ever writing into the reserved range.
func (t *Type) PageSpecial(pageInBlock uint32) bool {
	if t.ReservedPages == 0 {
		return false
	}
	return pageInBlock >= t.NrHostPagesInBlk-t.ReservedPages
}

func (t *Type) LookupLtop(tm *ftl.TranslationMap, l ftl.LogAddr, mapID ftl.MapID) (*ftl.Handle, error) {
	return t.base.LookupLtop(tm, l, mapID)
}

// MapLtop delegates to the FTL's round-robin allocator but passes this
// Type's PageSpecial predicate through, so reserved pages are honored
// regardless of which append point services the write.
func (t *Type) MapLtop(f *ftl.FTL, l ftl.LogAddr, isGC bool, mapID ftl.MapID) (*ftl.Handle, error) {
	return f.MapLtopRR(l, isGC, mapID, t.PageSpecial)
}

func (t *Type) DeferBio(f *ftl.FTL, req *ftl.RequestWrapper) {
	f.DeferRequest(req)
}

func (t *Type) ReadBio(f *ftl.FTL, req *ftl.RequestWrapper) error {
	return f.ReadBio(req)
}

func (t *Type) WriteBio(f *ftl.FTL, req *ftl.RequestWrapper) error {
	return f.WriteBio(req)
}

func (t *Type) BioWaitAdd(f *ftl.FTL, req *ftl.RequestWrapper) {
	f.PoolWaitAdd(req)
}

// Endio runs the shared completion path and then, only for requests
// explicitly tagged IsGCRead, the caller's GC-read observer if one is
// registered. The GC-read fields are captured before f.Endio runs: that
// call returns req's wrapper to its pool, which zeroes it out from under
// us (Complete -> wrapperPool.put), so reading req after the call would
// see a reset wrapper rather than the request that just completed.
func (t *Type) Endio(f *ftl.FTL, req *ftl.RequestWrapper, err error) {
	isGCRead := req.IsGCRead()
	var log ftl.LogAddr
	var addr ftl.PhysAddr
	if isGCRead {
		log = req.Log()
		addr = req.Addr()
	}

	f.Endio(req, err)

	if err == nil && isGCRead && t.OnGCRead != nil {
		t.OnGCRead(log, addr)
	}
}
