package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFTL(t *testing.T, nrAPs, nrBlocksPerPool int, nrHostPagesInBlk, nrHostPagesInFlashPage uint32) *FTL {
	t.Helper()
	cfg := Config{
		NrAPs:                  nrAPs,
		NrBlocksPerPool:        nrBlocksPerPool,
		NrHostPagesInBlk:       nrHostPagesInBlk,
		NrHostPagesInFlashPage: nrHostPagesInFlashPage,
		NrPhyInLog:             1,
		NrPages:                64,
		Options:                OptNoWaits,
	}
	f, err := NewFTL(cfg, NewMemDevice(4), nil)
	require.NoError(t, err)
	return f
}

func TestMapLtopRRRoundRobinsAcrossAPs(t *testing.T) {
	f := newTestFTL(t, 2, 2, 8, 2)

	h1, err := f.MapLtopRR(0, false, MapPrimary, nil)
	require.NoError(t, err)
	h2, err := f.MapLtopRR(1, false, MapPrimary, nil)
	require.NoError(t, err)

	assert.NotEqual(t, f.blocks[h1.Block].pool, f.blocks[h2.Block].pool, "consecutive host writes should land on different pools")
}

func TestMapLtopRRGCPrefersMostFreeBlocks(t *testing.T) {
	f := newTestFTL(t, 2, 3, 8, 2)

	// exhaust pool 0 down to one free block, leave pool 1 untouched
	_, err := f.pools[0].getBlock(false)
	require.NoError(t, err)
	_, err = f.pools[0].getBlock(false)
	require.NoError(t, err)

	ap := f.pickAP(true)
	assert.Equal(t, poolID(1), ap.pool, "GC allocation should prefer the pool with more free blocks")
}
