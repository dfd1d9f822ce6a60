package constants

// AttemptStatus is the canonical status for rows in the attempts journal.
type AttemptStatus string

// Stable values (store these exact strings in DB).
const (
	AttemptStatusRunning  AttemptStatus = "RUNNING"   // in progress
	AttemptStatusRecorded AttemptStatus = "RECORDED"  // row appended to the ledger
	AttemptStatusSkipped  AttemptStatus = "SKIPPED"   // already processed or filtered out
	AttemptStatusNotReady AttemptStatus = "NOT_READY" // size never settled
	AttemptStatusFailed   AttemptStatus = "FAILED"    // extraction or ledger failure
)

var allStatuses = []AttemptStatus{
	AttemptStatusRunning,
	AttemptStatusRecorded,
	AttemptStatusSkipped,
	AttemptStatusNotReady,
	AttemptStatusFailed,
}

// StatusesAsStringSlice lists every attempt status in display order.
func StatusesAsStringSlice() []string {
	result := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		result[i] = string(s)
	}
	return result
}
