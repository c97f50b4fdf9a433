package ftl

// Type is the capability-set ("vtable") that selects an allocation/lookup
// strategy for an FTL instance (spec §4.7, §9). It is intentionally a
// small interface rather than a struct of function pointers: Go already
// gives us dynamic dispatch without the teacher's buffer-pool C-style
// jump tables, so the idiomatic translation is a plain interface. Its
// methods are exported so a Type can live in its own package (see
// ftl/hints) while still reusing the FTL's and TranslationMap's default
// building blocks.
//
// defaultType (below) implements the round-robin, no-hints policy. The
// hints sub-package implements a second Type that special-cases a
// reserved page range per block.
type Type interface {
	// LookupLtop resolves a logical address to its current physical
	// address and owning block, or fails with ErrGCRunning if the owning
	// block is mid-relocation.
	LookupLtop(tm *TranslationMap, l LogAddr, mapID MapID) (*Handle, error)

	// MapLtop picks an append point (round-robin or GC-aware) and
	// allocates the next physical address on it, recording the mapping.
	MapLtop(f *FTL, l LogAddr, isGC bool, mapID MapID) (*Handle, error)

	// DeferBio parks req on the deferred queue and kicks GC.
	DeferBio(f *FTL, req *RequestWrapper)

	// ReadBio and WriteBio perform the type-specific portion of request
	// setup before the request reaches the shared submit pipeline.
	ReadBio(f *FTL, req *RequestWrapper) error
	WriteBio(f *FTL, req *RequestWrapper) error

	// BioWaitAdd enqueues req on its target pool's serialization queue
	// when OptPoolSerialize is set.
	BioWaitAdd(f *FTL, req *RequestWrapper)

	// Endio runs after the device completes a request. Optional hooks
	// (page-reservation predicates) are surfaced through separate
	// interfaces (PageSpecialer) rather than made part of this one,
	// since not every Type needs them.
	Endio(f *FTL, req *RequestWrapper, err error)
}

// PageSpecialer is an optional capability: a Type that reserves certain
// in-block page offsets (metadata, OOB-area emulation, etc.) implements
// it; hints.Type does, defaultType does not.
type PageSpecialer interface {
	PageSpecial(pageInBlock uint32) bool
}

// defaultType is the baseline policy: plain round-robin append-point
// selection, no reserved pages, no GC-read distinction beyond the
// ErrGCRunning defer.
type defaultType struct{}

// NewDefaultType returns the baseline allocation policy used when
// Config.Type is left nil.
func NewDefaultType() Type { return defaultType{} }

func (defaultType) LookupLtop(tm *TranslationMap, l LogAddr, mapID MapID) (*Handle, error) {
	return tm.LookupLtop(l, mapID)
}

func (defaultType) MapLtop(f *FTL, l LogAddr, isGC bool, mapID MapID) (*Handle, error) {
	return f.MapLtopRR(l, isGC, mapID, nil)
}

func (defaultType) DeferBio(f *FTL, req *RequestWrapper) {
	f.DeferRequest(req)
}

func (defaultType) ReadBio(f *FTL, req *RequestWrapper) error {
	return f.ReadBio(req)
}

func (defaultType) WriteBio(f *FTL, req *RequestWrapper) error {
	return f.WriteBio(req)
}

func (defaultType) BioWaitAdd(f *FTL, req *RequestWrapper) {
	f.PoolWaitAdd(req)
}

func (defaultType) Endio(f *FTL, req *RequestWrapper, err error) {
	f.Endio(req, err)
}
