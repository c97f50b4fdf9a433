package ftl

import (
	"math/bits"
	"sync"
)

// Block is one erase-unit: a next-write cursor, an invalid-page bitmap,
// in-flight counters and an optional staging buffer. Grounded on the
// teacher's BufferPage/BufferBlock pair (server/innodb/buffer_pool), with
// the LRU/dirty-flag machinery replaced by the append-only write cursor
// and invalid-page bitmap this spec actually needs.
type Block struct {
	mu sync.Mutex

	id   blockID
	pool poolID
	ap   apID // -1 (noAP) unless this block is an AP's current write target

	nrHostPagesInBlk       uint32
	nrHostPagesInFlashPage uint32

	nextPage   uint32 // next writable flash page within the block
	nextOffset uint32 // next writable host-page slot within nextPage

	invalidPages   []uint64 // bitmap, one bit per host page in the block
	nrInvalidPages uint32

	dataSize     uint32 // host pages written into the staging buffer
	dataCmntSize uint32 // host pages whose device I/O has completed

	gcRunning bool

	// data is the staging buffer: one []byte per host page, non-nil iff
	// this block is an active write target and not yet fully committed.
	data [][]byte

	// lastChecksum is an optional xxhash64 of the most recently committed
	// host page, surfaced only for diagnostics/tests (SPEC_FULL §3
	// PageChecksum) — never consulted for correctness.
	lastChecksum uint64
}

const noAP apID = -1

func newBlock(id blockID, pool poolID, nrHostPagesInBlk, nrHostPagesInFlashPage uint32) *Block {
	b := &Block{
		id:                     id,
		pool:                   pool,
		ap:                     noAP,
		nrHostPagesInBlk:       nrHostPagesInBlk,
		nrHostPagesInFlashPage: nrHostPagesInFlashPage,
		invalidPages:           make([]uint64, (nrHostPagesInBlk+63)/64),
	}
	return b
}

// flashPages is the number of flash-page-sized write units in the block.
func (b *Block) flashPages() uint32 {
	return b.nrHostPagesInBlk / b.nrHostPagesInFlashPage
}

// reset zeros the invalid-page bitmap, the write cursors and the commit
// counters. Called once the block has been exclusively popped off a
// pool's free_list (Pool.getBlock), so no pool-list lock is required here
// — only this block's own lock, guarding against a racing alloc_phys from
// a prior lifetime of the same slot.
func (b *Block) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.invalidPages {
		b.invalidPages[i] = 0
	}
	b.nrInvalidPages = 0
	b.nextPage = 0
	b.nextOffset = 0
	b.dataSize = 0
	b.dataCmntSize = 0
	b.gcRunning = false
	b.data = nil
	b.lastChecksum = 0
}

// activateStaging allocates the per-block write buffer. Invariant: data is
// non-nil iff the block is an active write target and not yet fully
// committed (spec §3).
func (b *Block) activateStaging() {
	b.mu.Lock()
	defer b.mu.Unlock()
	invariant(b.data == nil, "block %d: activateStaging called on a block with a live staging buffer", b.id)
	b.data = make([][]byte, b.nrHostPagesInBlk)
}

func (b *Block) isFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isFullLocked()
}

func (b *Block) isFullLocked() bool {
	return b.nextPage >= b.flashPages()
}

// allocPhys atomically advances the write cursor and returns the next
// physical address, or (LtopEmpty, false) if the block is full or
// pageSpecial rejects the next page (hints extension hook). It advances
// next_offset first and only bumps next_page once it saturates at
// nr_host_pages_in_flash_page (spec §4.1).
func (b *Block) allocPhys(pageSpecial func(pageInBlock uint32) bool) (PhysAddr, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isFullLocked() {
		return LtopEmpty, false
	}

	pageInBlock := b.nextPage*b.nrHostPagesInFlashPage + b.nextOffset
	if pageSpecial != nil && pageSpecial(pageInBlock) {
		return LtopEmpty, false
	}

	invariant(b.nextOffset < b.nrHostPagesInFlashPage, "block %d: next_offset %d out of range", b.id, b.nextOffset)

	addr := PhysAddr(int64(b.id)*int64(b.nrHostPagesInBlk) + int64(pageInBlock))

	b.nextOffset++
	if b.nextOffset >= b.nrHostPagesInFlashPage {
		b.nextOffset = 0
		b.nextPage++
	}
	b.dataSize++

	return addr, true
}

// invalidate sets the bit for addr's page in this block and increments
// nr_invalid_pages. Re-invalidating the same page is a logic error.
func (b *Block) invalidate(addr PhysAddr) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := uint32(int64(addr) % int64(b.nrHostPagesInBlk))
	word, bit := idx/64, idx%64

	invariant(b.invalidPages[word]&(1<<bit) == 0, "block %d: double invalidation of page %d", b.id, idx)
	b.invalidPages[word] |= 1 << bit
	b.nrInvalidPages++
}

// popcount returns the number of bits set in invalid_pages, for the
// testable invariant popcount(invalid_pages) == nr_invalid_pages (§8).
func (b *Block) popcount() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n uint32
	for _, w := range b.invalidPages {
		n += uint32(bits.OnesCount64(w))
	}
	return n
}

func (b *Block) setGCRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gcRunning = running
}

func (b *Block) isGCRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gcRunning
}

// stagePage copies payload into the staging buffer slot for addr's
// in-block page index, ahead of the device write (spec §4.6). ReadBio
// does not consult this buffer; reads are always served by the Device.
func (b *Block) stagePage(addr PhysAddr, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := uint32(int64(addr) % int64(b.nrHostPagesInBlk))
	buf := make([]byte, len(payload))
	copy(buf, payload)
	b.data[idx] = buf
}

// commitPage marks one staged host page as device-committed. When the
// block has committed every page it frees the staging buffer and reports
// full=true so the caller can move the block onto its pool's prio_list.
func (b *Block) commitPage(checksum uint64) (full bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dataCmntSize++
	b.lastChecksum = checksum
	if b.dataCmntSize >= b.nrHostPagesInBlk {
		b.data = nil
		return true
	}
	return false
}

// LastPageChecksum returns the xxhash64 of the most recently committed
// page in this block, for tests and operators (SPEC_FULL §3
// PageChecksum). It is never consulted by the FTL itself to make a
// correctness decision.
func (b *Block) LastPageChecksum() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastChecksum
}

func (b *Block) readPage(addr PhysAddr) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := uint32(int64(addr) % int64(b.nrHostPagesInBlk))
	if b.data == nil {
		return nil
	}
	return b.data[idx]
}
