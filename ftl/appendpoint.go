package ftl

import "sync"

// AppendPoint is the sequential write cursor for one pool: a "current"
// block taking host writes and a separate "gc_cur" block taking GC
// relocation writes, so host and GC traffic never contend for the same
// block's write cursor (spec §4.3).
type AppendPoint struct {
	mu sync.Mutex

	id   apID
	pool poolID

	cur   blockID
	gcCur blockID

	accessCount uint64
}

func newAppendPoint(id apID, pool poolID) *AppendPoint {
	return &AppendPoint{id: id, pool: pool, cur: noBlock, gcCur: noBlock}
}

// setCur installs newBlock as the AP's current (or gc) write target,
// clearing the outgoing block's back-reference to this AP. Caller must
// hold ap.mu.
func (ap *AppendPoint) setCur(blocks []*Block, newBlock blockID, isGC bool) {
	var old blockID
	if isGC {
		old = ap.gcCur
		ap.gcCur = newBlock
	} else {
		old = ap.cur
		ap.cur = newBlock
	}
	if old != noBlock {
		blocks[old].ap = noAP
	}
	if newBlock != noBlock {
		blocks[newBlock].ap = ap.id
	}
}

// allocAddrLocked implements the two-tier allocation policy: try the
// current block first; on exhaustion, pull a fresh block from the pool
// and retry once. pageSpecial is the optional hints.Type reserved-page
// hook. Caller (MapLtopRR) must already hold ap.mu, since the allocation
// and the subsequent translation-map update must happen as one atomic
// group under the AP lock (spec §4.5).
func (ap *AppendPoint) allocAddrLocked(pool *Pool, blocks []*Block, isGC bool, pageSpecial func(uint32) bool) (PhysAddr, blockID, error) {
	cur := ap.cur
	if isGC {
		cur = ap.gcCur
	}

	if cur != noBlock {
		if addr, ok := blocks[cur].allocPhys(pageSpecial); ok {
			ap.accessCount++
			return addr, cur, nil
		}
	}

	// Step 2 always asks for a non-reserved block first (is_gc=0), so a
	// GC refill never eats into the append-point headroom unless no
	// other block is available; only then does step 3 fall back to
	// is_gc=1 (spec §4.3).
	id, err := pool.getBlock(false)
	if err != nil && isGC {
		id, err = pool.getBlock(true)
	}
	if err != nil {
		return LtopEmpty, noBlock, err
	}
	ap.setCur(blocks, id, isGC)

	addr, ok := blocks[id].allocPhys(pageSpecial)
	invariant(ok, "appendpoint %d: freshly reset block %d reported full on first alloc", ap.id, id)
	ap.accessCount++
	return addr, id, nil
}
