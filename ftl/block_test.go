package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockAllocPhysFillsSequentially(t *testing.T) {
	b := newBlock(0, 0, 4, 2) // 4 host pages, 2 per flash page -> 2 flash pages
	b.activateStaging()

	var got []PhysAddr
	for i := 0; i < 4; i++ {
		addr, ok := b.allocPhys(nil)
		require.True(t, ok)
		got = append(got, addr)
	}
	assert.Equal(t, []PhysAddr{0, 1, 2, 3}, got)

	_, ok := b.allocPhys(nil)
	assert.False(t, ok, "block should report full once nr_host_pages_in_blk pages are allocated")
	assert.True(t, b.isFull())
}

func TestBlockAllocPhysHonorsPageSpecial(t *testing.T) {
	b := newBlock(1, 0, 4, 2)
	b.activateStaging()

	reserveLast := func(pageInBlock uint32) bool { return pageInBlock == 3 }

	addrs := 0
	for {
		if _, ok := b.allocPhys(reserveLast); !ok {
			break
		}
		addrs++
	}
	assert.Equal(t, 3, addrs, "page_special should reject the reserved offset before the block reports full")
}

func TestBlockInvalidateTracksPopcount(t *testing.T) {
	b := newBlock(2, 0, 128, 4)
	b.activateStaging()

	addr, ok := b.allocPhys(nil)
	require.True(t, ok)

	b.invalidate(addr)
	assert.EqualValues(t, 1, b.popcount())
	assert.EqualValues(t, 1, b.nrInvalidPages)
}

func TestBlockDoubleInvalidatePanics(t *testing.T) {
	b := newBlock(3, 0, 8, 2)
	b.activateStaging()
	addr, _ := b.allocPhys(nil)
	b.invalidate(addr)

	assert.Panics(t, func() { b.invalidate(addr) })
}

func TestBlockResetClearsState(t *testing.T) {
	b := newBlock(4, 0, 8, 2)
	b.activateStaging()
	addr, _ := b.allocPhys(nil)
	b.invalidate(addr)

	b.reset()

	assert.EqualValues(t, 0, b.nrInvalidPages)
	assert.EqualValues(t, 0, b.nextPage)
	assert.EqualValues(t, 0, b.nextOffset)
	assert.Nil(t, b.data)
}

func TestBlockCommitPageReportsFullOnce(t *testing.T) {
	b := newBlock(5, 0, 2, 1)
	b.activateStaging()

	full := b.commitPage(0)
	assert.False(t, full)
	full = b.commitPage(0)
	assert.True(t, full)
	assert.Nil(t, b.data, "staging buffer should be released once every page commits")
}

func TestBlockLastPageChecksumTracksMostRecentCommit(t *testing.T) {
	b := newBlock(6, 0, 4, 1)
	b.activateStaging()

	assert.EqualValues(t, 0, b.LastPageChecksum(), "no page committed yet")

	c1 := pageChecksum([]byte{1, 2, 3})
	b.commitPage(c1)
	assert.Equal(t, c1, b.LastPageChecksum())

	c2 := pageChecksum([]byte{4, 5, 6})
	b.commitPage(c2)
	assert.Equal(t, c2, b.LastPageChecksum())
	assert.NotEqual(t, c1, c2)
}
