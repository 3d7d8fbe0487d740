package constants

// Advisory lock ids. Offset so they do not collide with other applications sharing the database.
const (
	MigrationLock = iota + 0x5246_0000
	DispatchLock
	JanitorLock
)

var Locks = []int{
	MigrationLock,
	DispatchLock,
	JanitorLock,
}

const (
	// MaxRecordAttempts bounds history writes before the entry is logged and dropped.
	MaxRecordAttempts = 3
)
