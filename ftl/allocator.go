package ftl

import "sync/atomic"

// MapLtopRR is the round-robin allocator: pick an append point (plain
// round-robin for host writes, most-free-blocks-wins for GC writes),
// allocate a physical address under that AP's lock, and record the
// mapping — all as one atomic group, so no other goroutine can observe
// a physical address reserved but not yet reflected in the translation
// map (spec §4.5, §6). Exported so a Type implementation outside this
// package (ftl/hints) can reuse the baseline allocation policy and only
// override the parts it needs to change.
func (f *FTL) MapLtopRR(l LogAddr, isGC bool, mapID MapID, pageSpecial func(uint32) bool) (*Handle, error) {
	ap := f.pickAP(isGC)

	ap.mu.Lock()
	defer ap.mu.Unlock()

	addr, block, err := ap.allocAddrLocked(f.pools[ap.pool], f.blocks, isGC, pageSpecial)
	if err != nil {
		return nil, err
	}

	return f.tm.updateMap(l, addr, block, mapID)
}

// pickAP chooses an append point. Host writes cycle through APs in
// round-robin order via rrCursor; GC writes prefer the pool with the
// most free blocks, tie-breaking to the lowest index for determinism.
func (f *FTL) pickAP(isGC bool) *AppendPoint {
	if !isGC {
		n := atomic.AddUint64(&f.rrCursor, 1) - 1
		return f.aps[int(n)%len(f.aps)]
	}

	best := 0
	bestFree := f.pools[0].freeBlocks()
	for i := 1; i < len(f.pools); i++ {
		if free := f.pools[i].freeBlocks(); free > bestFree {
			best, bestFree = i, free
		}
	}
	return f.aps[best]
}
