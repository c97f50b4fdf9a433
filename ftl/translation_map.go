package ftl

import "sync"

// MapID distinguishes the primary logical-to-physical map from any
// GC-scoped shadow map consulted while a block is being relocated
// (spec §4.4, §9). hostftl ships only the primary map; MapID exists so
// a future GC implementation can register shadow maps without changing
// this package's signatures.
type MapID uint32

// MapPrimary is the one map every FTL instance always has.
const MapPrimary MapID = 0

// ForwardEntry is one logical address's current physical location.
type ForwardEntry struct {
	Addr  PhysAddr
	Block blockID
}

// ReverseEntry is one physical address's owning logical address, or a
// poisoned marker once a newer write has superseded it.
type ReverseEntry struct {
	Log      LogAddr
	Map      MapID
	Poisoned bool
}

// TranslationMap holds the coupled forward/reverse maps plus the
// per-logical-address locks that let unrelated addresses be updated
// concurrently (spec §4.4). forward is a flat slice sized NrPages;
// reverse is sparse (physical space is far larger than committed data)
// so it is a plain map guarded by revLock.
type TranslationMap struct {
	addrLocks []sync.Mutex // one per logical address

	revLock sync.Mutex
	forward []ForwardEntry
	reverse map[PhysAddr]ReverseEntry

	blocks []*Block // shared backing array, for invalidate-on-overwrite

	handles *handlePool
}

func newTranslationMap(nrPages uint64, blocks []*Block, handlePoolSize int) *TranslationMap {
	tm := &TranslationMap{
		addrLocks: make([]sync.Mutex, nrPages),
		forward:   make([]ForwardEntry, nrPages),
		reverse:   make(map[PhysAddr]ReverseEntry),
		blocks:    blocks,
		handles:   newHandlePool(handlePoolSize),
	}
	for i := range tm.forward {
		tm.forward[i] = ForwardEntry{Addr: LtopEmpty, Block: noBlock}
	}
	return tm
}

// lockAddr and unlockAddr serialize every operation (lookup, map, GC
// relocation) touching one logical address (spec §6 concurrency model).
func (tm *TranslationMap) lockAddr(l LogAddr)   { tm.addrLocks[l].Lock() }
func (tm *TranslationMap) unlockAddr(l LogAddr) { tm.addrLocks[l].Unlock() }

// LookupLtop resolves l to a handle describing its current physical
// address and owning block. Caller must hold the address lock for l.
// Fails with ErrGCRunning if the owning block is mid-relocation.
func (tm *TranslationMap) LookupLtop(l LogAddr, mapID MapID) (*Handle, error) {
	fe := tm.forward[l]
	if fe.Block != noBlock && tm.blocks[fe.Block].isGCRunning() {
		return nil, ErrGCRunning
	}

	h := tm.handles.get()
	if h == nil {
		return nil, ErrDeferred
	}
	h.Addr = fe.Addr
	h.Block = fe.Block
	h.Map = mapID
	return h, nil
}

// updateMap installs a new forward mapping for l, poisoning the reverse
// entry of whatever physical address l previously pointed at and
// invalidating that page in its owning block. Caller must hold the
// address lock for l; this additionally takes the global rev_lock to
// keep the forward/reverse pair consistent (spec §4.4).
func (tm *TranslationMap) updateMap(l LogAddr, addr PhysAddr, block blockID, mapID MapID) (*Handle, error) {
	tm.revLock.Lock()
	prev := tm.forward[l]
	if prev.Block != noBlock {
		tm.blocks[prev.Block].invalidate(prev.Addr)
		tm.reverse[prev.Addr] = ReverseEntry{Log: l, Map: mapID, Poisoned: true}
	}
	tm.forward[l] = ForwardEntry{Addr: addr, Block: block}
	tm.reverse[addr] = ReverseEntry{Log: l, Map: mapID}
	tm.revLock.Unlock()

	h := tm.handles.get()
	if h == nil {
		return nil, ErrDeferred
	}
	h.Addr = addr
	h.Block = block
	h.Map = mapID
	return h, nil
}

// Handle is a pool-allocated, short-lived view of one translation
// result. Pulled from a fixed-capacity pool at init per spec §5: the
// resource model requires allocation failure to surface as an error,
// never a deadlock.
type Handle struct {
	Addr  PhysAddr
	Block blockID
	Map   MapID
}

// handlePool is a fixed-capacity free list of *Handle, grounded on the
// teacher's preallocated BufferPage array (server/innodb/buffer_pool
// /buffer_pool.go freePages).
type handlePool struct {
	free chan *Handle
}

func newHandlePool(size int) *handlePool {
	if size <= 0 {
		size = 1
	}
	hp := &handlePool{free: make(chan *Handle, size)}
	for i := 0; i < size; i++ {
		hp.free <- &Handle{}
	}
	return hp
}

// get returns a handle or nil if the pool is exhausted. Exhaustion is a
// caller-visible condition, not a panic: the client surface turns it
// into ErrDeferred.
func (hp *handlePool) get() *Handle {
	select {
	case h := <-hp.free:
		return h
	default:
		return nil
	}
}

// put returns a handle to the pool. Safe to call on a nil handle.
func (hp *handlePool) put(h *Handle) {
	if h == nil {
		return
	}
	*h = Handle{}
	select {
	case hp.free <- h:
	default:
		// pool over-full: caller double-freed a handle. Drop it rather
		// than block or panic; this should never happen in practice.
	}
}
