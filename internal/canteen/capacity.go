package canteen

// Remaining is the capacity still open for a day: quota minus the quantities
// held by active orders, floored at zero. An over-committed day (admin
// shrank the quota under the committed sum) reports zero rather than a
// negative value or an error.
func Remaining(capacity, activeSum int) int {
	remaining := capacity - activeSum
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxQuantityForUpdate is the largest quantity an existing order may be
// changed to: its current quantity plus the day's remaining headroom. The
// order keeps what it already holds and can only grow by what is still
// free, so a successful change never pushes the active sum past the quota.
func MaxQuantityForUpdate(capacity, activeSum, current int) int {
	return current + Remaining(capacity, activeSum)
}
