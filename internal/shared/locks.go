package shared

// LockNamespaceSnapshot is the first key of pg_advisory_xact_lock(int, int) for snapshot months.
const LockNamespaceSnapshot int32 = 4101

// SnapshotLockKey builds the second advisory key for a snapshot month.
func SnapshotLockKey(ym YearMonth) int32 {
	return int32(ym.Year*100 + ym.Month)
}
