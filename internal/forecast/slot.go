package forecast

import "time"

const (
	// slotMinutes is the forecast resolution.
	slotMinutes = 5

	// validWindowMinutes is how long after creation a dataset still covers
	// "now": Steps slots of slotMinutes each.
	validWindowMinutes = 120
)

// StaleDatasetError reports that "now" falls outside the dataset's
// validity window. Minutes is the signed dataset age: negative for a
// dataset from the future, greater than the window for a stale one.
type StaleDatasetError struct {
	Minutes int64
}

func (e *StaleDatasetError) Error() string {
	if e.Minutes < 0 {
		return "dataset is from the future"
	}
	return "dataset is too old"
}

// SlotFor maps the dataset age at "now" to a forecast slot index. The age
// keeps fractional-minute precision until the final division, so 119m59s
// still lands in slot 23. Outside [0, 120] minutes it returns a
// StaleDatasetError carrying the age truncated to whole minutes.
func SlotFor(createdAt, now time.Time) (int, error) {
	age := now.Sub(createdAt).Minutes()
	if age < 0 || age > validWindowMinutes {
		return 0, &StaleDatasetError{Minutes: int64(age)}
	}
	return int(age / slotMinutes), nil
}
