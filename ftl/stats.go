package ftl

import "sync/atomic"

// Stats is a snapshot of the FTL's atomic counters, grounded on the
// teacher's buffer-pool hit/miss accounting (server/innodb/buffer_pool
// /buffer_lru.go).
type Stats struct {
	Reads      uint64
	Writes     uint64
	Deferrals  uint64
	GCKicks    uint64
	PoolWaits  uint64
	ReadMisses uint64 // zero-fill reads of never-written logical addresses
}

type stats struct {
	reads      uint64
	writes     uint64
	deferrals  uint64
	gcKicks    uint64
	poolWaits  uint64
	readMisses uint64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Reads:      atomic.LoadUint64(&s.reads),
		Writes:     atomic.LoadUint64(&s.writes),
		Deferrals:  atomic.LoadUint64(&s.deferrals),
		GCKicks:    atomic.LoadUint64(&s.gcKicks),
		PoolWaits:  atomic.LoadUint64(&s.poolWaits),
		ReadMisses: atomic.LoadUint64(&s.readMisses),
	}
}

// Stats returns a point-in-time snapshot of the FTL's counters.
func (f *FTL) Stats() Stats { return f.st.snapshot() }
