package domain

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusNotified  Status = "notified"
	StatusServing   Status = "serving"
	StatusServed    Status = "served"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// transitions lists every allowed forward move. Anything absent is invalid.
var transitions = map[Status][]Status{
	StatusWaiting:  {StatusNotified, StatusCancelled},
	StatusNotified: {StatusServing, StatusCancelled, StatusNoShow},
	StatusServing:  {StatusServed},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the entry counts towards position numbering.
func (s Status) IsActive() bool {
	return s == StatusWaiting || s == StatusNotified
}

func (s Status) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled || s == StatusNoShow
}

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusServing, StatusServed, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
