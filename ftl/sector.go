package ftl

// sectorToLog converts a raw device sector number (the unit Request.Log
// actually carries, per spec §4.6/§6's upstream contract) into the
// logical host-page address the TranslationMap and Allocator operate
// on: l = sector / NR_PHY_IN_LOG.
func (f *FTL) sectorToLog(sector LogAddr) LogAddr {
	return LogAddr(uint64(sector) / uint64(f.cfg.NrPhyInLog))
}

// sectorAddr translates a host-page physical address back into the
// device-facing sector address the Device is actually submitted to:
// p.addr * NR_PHY_IN_LOG + (sector mod NR_PHY_IN_LOG) (spec §4.6
// read_bio note, applied symmetrically to writes).
func (f *FTL) sectorAddr(addr PhysAddr, sector LogAddr) PhysAddr {
	phy := uint64(f.cfg.NrPhyInLog)
	return PhysAddr(int64(addr)*int64(phy) + int64(uint64(sector)%phy))
}
