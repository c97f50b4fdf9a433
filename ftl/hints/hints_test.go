package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostftl/ftl"
)

func TestPageSpecialRejectsReservedTail(t *testing.T) {
	typ := New(8, 2) // 8 host pages per block, last 2 reserved

	assert.False(t, typ.PageSpecial(5))
	assert.True(t, typ.PageSpecial(6))
	assert.True(t, typ.PageSpecial(7))
}

func TestHintsTypeReservesPagesAcrossWrites(t *testing.T) {
	typ := New(8, 2)
	cfg := ftl.Config{
		NrAPs:                  1,
		NrBlocksPerPool:        2,
		NrHostPagesInBlk:       8,
		NrHostPagesInFlashPage: 2,
		NrPhyInLog:             1,
		NrPages:                32,
		Options:                ftl.OptNoWaits,
		Type:                   typ,
	}
	f, err := ftl.NewFTL(cfg, ftl.NewMemDevice(4), nil)
	require.NoError(t, err)

	// the first block can only take 6 of its 8 host pages before the
	// reserved tail forces a roll to the second block.
	addrs := make([]ftl.PhysAddr, 0, 7)
	for i := 0; i < 7; i++ {
		done := make(chan error, 1)
		err := f.Write(ftl.LogAddr(i), make([]byte, 4), func(err error) { done <- err })
		require.NoError(t, err)
		require.NoError(t, <-done)
	}
	_ = addrs

	assert.EqualValues(t, 7, f.Stats().Writes)
}

func TestHintsEndioInvokesGCReadObserver(t *testing.T) {
	typ := New(8, 0)

	var seen []ftl.LogAddr
	typ.OnGCRead = func(l ftl.LogAddr, _ ftl.PhysAddr) {
		seen = append(seen, l)
	}

	cfg := ftl.Config{
		NrAPs:                  1,
		NrBlocksPerPool:        1,
		NrHostPagesInBlk:       4,
		NrHostPagesInFlashPage: 2,
		NrPhyInLog:             1,
		NrPages:                8,
		Options:                ftl.OptNoWaits,
		Type:                   typ,
	}
	f, err := ftl.NewFTL(cfg, ftl.NewMemDevice(4), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	require.NoError(t, f.Write(0, make([]byte, 4), func(err error) { done <- err }))
	require.NoError(t, <-done)

	done2 := make(chan error, 1)
	err = f.Submit(&ftl.Request{
		Log:      0,
		Dir:      ftl.DirRead,
		Payload:  make([]byte, 4),
		IsGCRead: true,
		Complete: func(err error) { done2 <- err },
	})
	require.NoError(t, err)
	require.NoError(t, <-done2)

	require.Len(t, seen, 1)
	assert.EqualValues(t, 0, seen[0])
}
