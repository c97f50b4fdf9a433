package ftl

import (
	"time"

	"github.com/pkg/errors"
)

// Option is a bitmask of the NVM_OPT_* flags from spec §6.
type Option uint32

const (
	// OptNoWaits disables device-wait pacing in endio.
	OptNoWaits Option = 1 << iota
	// OptPoolSerialize serializes I/O per pool through the waiting queue,
	// emulating a single-channel device.
	OptPoolSerialize
)

func (o Option) has(flag Option) bool { return o&flag != 0 }

// Config enumerates the FTL's static configuration (spec §6).
type Config struct {
	Options Option

	NrAPs                  int // number of append points = number of pools, 1:1
	NrPages                uint64
	NrHostPagesInBlk       uint32
	NrHostPagesInFlashPage uint32 // sub-page grouping within a flash page
	NrPhyInLog             uint32 // device sectors per host page
	NrBlocksPerPool        int

	// TRead/TWrite are microsecond device-wait targets, one pair shared
	// by every AP unless PerAPTimings is set.
	TRead, TWrite time.Duration

	// PerAPTimings overrides TRead/TWrite per append point, indexed the
	// same as the AP array. May be nil.
	PerAPTimings []APTiming

	// HandlePoolSize bounds the fixed-capacity ForwardEntry-handle and
	// RequestWrapper pools sized at init (spec §5 resource model).
	HandlePoolSize int

	Type Type
}

// APTiming is a per-append-point device-wait target pair.
type APTiming struct {
	TRead, TWrite time.Duration
}

func (c Config) validate() error {
	switch {
	case c.NrAPs <= 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_aps must be > 0"))
	case c.NrBlocksPerPool <= 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_blocks_per_pool must be > 0"))
	case c.NrHostPagesInFlashPage == 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_host_pages_in_flash_page must be > 0"))
	case c.NrHostPagesInBlk == 0 || c.NrHostPagesInBlk%c.NrHostPagesInFlashPage != 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_host_pages_in_blk must be a positive multiple of nr_host_pages_in_flash_page"))
	case c.NrPhyInLog == 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_phy_in_log must be > 0"))
	case c.NrPages == 0:
		return wrapErr("NewFTL", errors.Wrap(ErrBadConfig, "nr_pages must be > 0"))
	}
	return nil
}

func (c Config) handlePoolSize() int {
	if c.HandlePoolSize > 0 {
		return c.HandlePoolSize
	}
	return int(c.NrPages)
}
