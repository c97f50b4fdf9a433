package ftl

import (
	"container/list"
	"sync"

	"hostftl/logger"
)

// Pool is one independent channel's worth of blocks: a free/used/prio
// triage of block IDs plus, when OptPoolSerialize is set, the queue that
// makes every bio into this pool wait for the one ahead of it. Grounded
// on the teacher's BufferPool free/LRU list pair (server/innodb/buffer_pool
// /buffer_pool.go), with the LRU eviction policy replaced by the
// free/used/prio triage this spec requires.
type Pool struct {
	mu sync.Mutex

	id     poolID
	blocks []*Block // shared backing array, owned by the parent FTL

	freeList *list.List // of blockID, FIFO
	usedList *list.List // of blockID, in the order taken from free_list
	prioList *list.List // of blockID, fully-committed blocks GC should prefer

	nrFreeBlocks int
	nrAPsHeadroom int // last free blocks withheld from host writers, left for GC

	// Serialization state (spec §4.2, §6 OptPoolSerialize): at most one
	// bio is "in flight" against this pool at a time; everything else
	// waits in waitingBios.
	waitingLock sync.Mutex
	waitingBios *list.List // of *RequestWrapper
	isActive    bool
	curBio      *RequestWrapper
}

// newPool builds a pool over the shared global block array. ownBlocks
// lists the IDs that belong to this pool; allBlocks is the full
// FTL-owned array so blockIDs (global indices) resolve directly.
func newPool(id poolID, allBlocks []*Block, ownBlocks []blockID, nrAPsHeadroom int) *Pool {
	p := &Pool{
		id:            id,
		blocks:        allBlocks,
		freeList:      list.New(),
		usedList:      list.New(),
		prioList:      list.New(),
		waitingBios:   list.New(),
		nrAPsHeadroom: nrAPsHeadroom,
	}
	for _, id := range ownBlocks {
		p.freeList.PushBack(id)
	}
	p.nrFreeBlocks = p.freeList.Len()
	return p
}

// getBlock pops the front of free_list, moves it to used_list and resets
// it for writing. isGC callers may take the last nrAPsHeadroom free
// blocks; host callers may not (ErrAPReserved).
func (p *Pool) getBlock(isGC bool) (blockID, error) {
	p.mu.Lock()

	if p.freeList.Len() == 0 {
		p.mu.Unlock()
		logger.Debugf("pool %d: getBlock(gc=%v) failed: %v\n", p.id, isGC, ErrPoolEmpty)
		return noBlock, ErrPoolEmpty
	}
	if !isGC && p.nrFreeBlocks <= p.nrAPsHeadroom {
		p.mu.Unlock()
		logger.Debugf("pool %d: getBlock(gc=%v) failed: %v\n", p.id, isGC, ErrAPReserved)
		return noBlock, ErrAPReserved
	}

	front := p.freeList.Front()
	id := front.Value.(blockID)
	p.freeList.Remove(front)
	p.usedList.PushBack(id)
	p.nrFreeBlocks--
	p.mu.Unlock()

	logger.Debugf("pool %d: block %d free->used (gc=%v)\n", p.id, id, isGC)

	blk := p.blocks[id]
	blk.reset()
	blk.activateStaging()

	return id, nil
}

// putBlock returns a fully-invalidated block to free_list. Called by GC,
// which is out of scope here beyond this entry point (spec §4.8).
func (p *Pool) putBlock(id blockID) {
	p.mu.Lock()

	for e := p.usedList.Front(); e != nil; e = e.Next() {
		if e.Value.(blockID) == id {
			p.usedList.Remove(e)
			break
		}
	}
	for e := p.prioList.Front(); e != nil; e = e.Next() {
		if e.Value.(blockID) == id {
			p.prioList.Remove(e)
			break
		}
	}
	p.freeList.PushBack(id)
	p.nrFreeBlocks++
	p.mu.Unlock()

	logger.Debugf("pool %d: block %d ->free\n", p.id, id)
}

// markFull moves a block from used_list to prio_list once the submit
// pipeline observes its staging buffer fully committed, so GC scans
// prio_list first.
func (p *Pool) markFull(id blockID) {
	p.mu.Lock()

	for e := p.usedList.Front(); e != nil; e = e.Next() {
		if e.Value.(blockID) == id {
			p.usedList.Remove(e)
			p.prioList.PushBack(id)
			p.mu.Unlock()
			logger.Debugf("pool %d: block %d used->prio\n", p.id, id)
			return
		}
	}
	p.mu.Unlock()
}

func (p *Pool) freeBlocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nrFreeBlocks
}
