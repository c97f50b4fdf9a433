package ftl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncComplete blocks the caller until complete fires, for tests that
// want Read/Write to look synchronous even though the FTL's surface is
// callback-based.
func syncComplete() (func(error), func() error) {
	done := make(chan error, 1)
	return func(err error) { done <- err }, func() error { return <-done }
}

func TestZeroFillColdRead(t *testing.T) {
	f := newTestFTL(t, 1, 2, 8, 2)

	buf := make([]byte, 4)
	for i := range buf {
		buf[i] = 0xAA
	}
	cb, wait := syncComplete()
	require.NoError(t, f.Read(0, buf, cb))
	require.NoError(t, wait())

	assert.Equal(t, make([]byte, 4), buf, "an unwritten logical address reads back as zero-fill")
	assert.EqualValues(t, 1, f.Stats().ReadMisses)
}

func TestSequentialWritesExhaustBlockThenDefer(t *testing.T) {
	// one pool, one block, one headroom-eating constraint: 4 flash pages
	// (8 host pages / 2 per flash page) before the pool itself (1 block)
	// runs dry.
	f := newTestFTL(t, 1, 1, 8, 2)

	noop := func(error) {}
	for i := 0; i < 8; i++ {
		payload := make([]byte, 4)
		err := f.Write(LogAddr(i), payload, noop)
		require.NoError(t, err, "write %d should still have room", i)
	}

	// the pool has no more free blocks and no headroom block to give up;
	// the 9th write must defer rather than block or panic.
	err := f.Write(8, make([]byte, 4), noop)
	assert.True(t, IsDeferred(err))
	assert.Equal(t, 1, f.DeferredLen())
	assert.True(t, f.GCRunning())
}

func TestOverwriteInvalidatesPreviousPage(t *testing.T) {
	f := newTestFTL(t, 1, 2, 8, 2)

	cb, wait := syncComplete()
	require.NoError(t, f.Write(3, []byte{1, 2, 3, 4}, cb))
	require.NoError(t, wait())

	firstAddr := f.tm.forward[3].Addr
	firstBlock := f.tm.forward[3].Block

	cb2, wait2 := syncComplete()
	require.NoError(t, f.Write(3, []byte{5, 6, 7, 8}, cb2))
	require.NoError(t, wait2())

	assert.NotEqual(t, firstAddr, f.tm.forward[3].Addr, "overwrite must allocate a fresh physical address")
	assert.EqualValues(t, 1, f.blocks[firstBlock].nrInvalidPages)
}

func TestPoolSerializationAdmitsOneBioAtATime(t *testing.T) {
	cfg := Config{
		NrAPs:                  1,
		NrBlocksPerPool:        2,
		NrHostPagesInBlk:       8,
		NrHostPagesInFlashPage: 2,
		NrPhyInLog:             1,
		NrPages:                16,
		Options:                OptNoWaits | OptPoolSerialize,
	}
	f, err := NewFTL(cfg, NewMemDevice(4), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		i := i
		err := f.Write(LogAddr(i), []byte{byte(i), 0, 0, 0}, func(error) { wg.Done() })
		require.NoError(t, err)
	}
	wg.Wait()

	assert.EqualValues(t, 4, f.Stats().Writes)
}

func TestGCRunningBlockDefersRead(t *testing.T) {
	f := newTestFTL(t, 1, 2, 8, 2)

	cb, wait := syncComplete()
	require.NoError(t, f.Write(1, []byte{9, 9, 9, 9}, cb))
	require.NoError(t, wait())

	block := f.tm.forward[1].Block
	f.BeginRelocation(block)

	err := f.Read(1, make([]byte, 4), func(error) {})
	assert.True(t, IsDeferred(err))
	assert.Equal(t, 1, f.DeferredLen())

	f.EndRelocation(block)
}

func TestDeferredQueueRetriesOnGCDone(t *testing.T) {
	f := newTestFTL(t, 1, 1, 8, 2)

	noop := func(error) {}
	for i := 0; i < 8; i++ {
		require.NoError(t, f.Write(LogAddr(i), make([]byte, 4), noop))
	}

	done := make(chan error, 1)
	err := f.Write(8, make([]byte, 4), func(err error) { done <- err })
	assert.True(t, IsDeferred(err))

	// simulate GC having relocated and fully invalidated the pool's one
	// (and only) block, returning it to free_list.
	f.pools[0].putBlock(0)

	f.GCDone()

	select {
	case err := <-done:
		assert.NoError(t, err)
	default:
		t.Fatal("retried write never completed")
	}
}
