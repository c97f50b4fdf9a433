package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, nrBlocks int, headroom int) (*Pool, []*Block) {
	t.Helper()
	blocks := make([]*Block, nrBlocks)
	ids := make([]blockID, nrBlocks)
	for i := range blocks {
		blocks[i] = newBlock(blockID(i), 0, 8, 2)
		ids[i] = blockID(i)
	}
	return newPool(0, blocks, ids, headroom), blocks
}

func TestPoolGetBlockMovesFreeToUsed(t *testing.T) {
	p, _ := newTestPool(t, 3, 0)
	require.Equal(t, 3, p.freeBlocks())

	id, err := p.getBlock(false)
	require.NoError(t, err)
	assert.Equal(t, blockID(0), id, "free_list is FIFO")
	assert.Equal(t, 2, p.freeBlocks())
}

func TestPoolGetBlockEmptyFails(t *testing.T) {
	p, _ := newTestPool(t, 1, 0)
	_, err := p.getBlock(false)
	require.NoError(t, err)

	_, err = p.getBlock(false)
	assert.ErrorIs(t, err, ErrPoolEmpty)
}

func TestPoolGetBlockWithholdsHeadroomFromHostWrites(t *testing.T) {
	p, _ := newTestPool(t, 2, 1)

	_, err := p.getBlock(false)
	require.NoError(t, err)

	// one block left, which is exactly the reserved headroom: a host
	// writer must not be allowed to take it.
	_, err = p.getBlock(false)
	assert.ErrorIs(t, err, ErrAPReserved)

	// GC may still take it.
	_, err = p.getBlock(true)
	assert.NoError(t, err)
}

func TestPoolPutBlockReturnsToFreeList(t *testing.T) {
	p, _ := newTestPool(t, 2, 0)
	id, err := p.getBlock(false)
	require.NoError(t, err)

	p.putBlock(id)
	assert.Equal(t, 2, p.freeBlocks())

	// and it's allocatable again
	_, err = p.getBlock(false)
	assert.NoError(t, err)
}

func TestPoolMarkFullMovesUsedToPrio(t *testing.T) {
	p, _ := newTestPool(t, 1, 0)
	id, err := p.getBlock(false)
	require.NoError(t, err)

	p.markFull(id)

	found := false
	for e := p.prioList.Front(); e != nil; e = e.Next() {
		if e.Value.(blockID) == id {
			found = true
		}
	}
	assert.True(t, found, "a fully-committed block should move onto prio_list")
}
