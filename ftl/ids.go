package ftl

// PhysAddr is a flat physical page address within the device's page space.
type PhysAddr int64

// LtopEmpty marks a forward entry that has never been written.
const LtopEmpty PhysAddr = -1

// LogAddr is a logical page address (sector / NR_PHY_IN_LOG).
type LogAddr uint64

// blockID, poolID and apID are stable indices into the FTL's top-level
// pools[]/aps[]/blocks[] arrays (spec §9: cyclic references modeled as
// indices, not ownership pointers, so Block/AP/Pool can cheaply refer to
// each other without the owning FTL instance holding circular pointers).
type blockID int32
type poolID int32
type apID int32

const noBlock blockID = -1
