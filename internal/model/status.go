package model

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusDone, StatusCancelled}
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus returns the status named by s and whether it is known.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.IsValid()
}
