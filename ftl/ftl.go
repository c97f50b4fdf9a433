// Package ftl implements a host-side flash translation layer: logical to
// physical address translation, sequential append-point allocation,
// invalid-page tracking for garbage collection, and per-logical-address
// concurrency control, independent of any particular device driver.
package ftl

import "github.com/juju/errors"

// FTL is one translation-layer instance: the top-level owner of every
// pool, append point and block, referenced by the stable integer
// indices defined in ids.go rather than by cyclic pointers (spec §9).
type FTL struct {
	cfg Config
	typ Type

	device Device
	gc     GCNotifier

	pools  []*Pool
	aps    []*AppendPoint
	blocks []*Block

	tm       *TranslationMap
	wrappers *wrapperPool
	deferred *deferredQueue

	st       stats
	gcKicked int32
	rrCursor uint64
}

// NewFTL builds an FTL instance for cfg, backed by device for physical
// I/O and (optionally) notifying gc when free blocks run low. gc may be
// nil; GC policy itself is out of scope here (spec §4.8 Non-goals).
func NewFTL(cfg Config, device Device, gc GCNotifier) (*FTL, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if device == nil {
		return nil, errors.Trace(wrapErr("NewFTL", ErrBadConfig))
	}

	typ := cfg.Type
	if typ == nil {
		typ = NewDefaultType()
	}

	f := &FTL{
		cfg:      cfg,
		typ:      typ,
		device:   device,
		gc:       gc,
		deferred: newDeferredQueue(),
		wrappers: newWrapperPool(cfg.handlePoolSize()),
	}

	nrBlocks := cfg.NrAPs * cfg.NrBlocksPerPool
	f.blocks = make([]*Block, nrBlocks)
	for i := range f.blocks {
		pool := poolID(i / cfg.NrBlocksPerPool)
		f.blocks[i] = newBlock(blockID(i), pool, cfg.NrHostPagesInBlk, cfg.NrHostPagesInFlashPage)
	}

	f.pools = make([]*Pool, cfg.NrAPs)
	f.aps = make([]*AppendPoint, cfg.NrAPs)
	for i := 0; i < cfg.NrAPs; i++ {
		own := make([]blockID, 0, cfg.NrBlocksPerPool)
		for b := i * cfg.NrBlocksPerPool; b < (i+1)*cfg.NrBlocksPerPool; b++ {
			own = append(own, blockID(b))
		}
		// Host writers are refused a block once the pool's free count
		// drops below nr_aps, leaving the last NrAPs-1 free blocks to
		// GC. A pool with only one block withholds nothing, so a host
		// append point can always take it.
		headroom := 0
		if cfg.NrBlocksPerPool > 1 {
			headroom = cfg.NrAPs - 1
		}
		f.pools[i] = newPool(poolID(i), f.blocks, own, headroom)
		f.aps[i] = newAppendPoint(apID(i), poolID(i))
	}

	f.tm = newTranslationMap(cfg.NrPages, f.blocks, cfg.handlePoolSize())

	return f, nil
}

// Read issues a synchronous-style read: Complete fires once the payload
// is filled (immediately for a zero-fill miss, otherwise after the
// device and any pacing/serialization finish).
func (f *FTL) Read(log LogAddr, payload []byte, complete func(error)) error {
	return f.Submit(&Request{Log: log, Dir: DirRead, Payload: payload, Complete: complete})
}

// Write issues a write of payload to log, allocating a fresh physical
// address via the current append point.
func (f *FTL) Write(log LogAddr, payload []byte, complete func(error)) error {
	return f.Submit(&Request{Log: log, Dir: DirWrite, Payload: payload, Complete: complete})
}

// KickGC requests garbage collection attention. Safe to call whether or
// not GC is already running; see kickGC.
func (f *FTL) KickGC() { f.kickGC() }

// GCRunning reports whether a GC kick is currently outstanding.
func (f *FTL) GCRunning() bool { return f.gcRunningFlag() }

// GCDone reports that GC has freed at least one block (or found none to
// free); the FTL retries everything on the deferred queue.
func (f *FTL) GCDone() { f.gcDone() }

// LockAddr and UnlockAddr expose the per-logical-address lock directly,
// for a caller (e.g. a GC implementation) that needs to hold exclusive
// access to an address across a relocation copy that the client Read/
// Write surface doesn't model.
func (f *FTL) LockAddr(l LogAddr)   { f.tm.lockAddr(l) }
func (f *FTL) UnlockAddr(l LogAddr) { f.tm.unlockAddr(l) }

// DeferredLen reports how many requests are currently parked awaiting
// GC, for tests and operators.
func (f *FTL) DeferredLen() int { return f.deferred.len() }

// PoolFreeBlocks reports pool i's current free-block count, for tests
// and operators.
func (f *FTL) PoolFreeBlocks(i int) int { return f.pools[i].freeBlocks() }
