package orders

import "strings"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusDelivered: true},
	StatusProcessing: {StatusDelivered: true},
	StatusDelivered:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Cancellable: delivered is terminal for cancellation purposes.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// ParseStatus is case-insensitive; the fulfillment side has been known to
// send "Delivered".
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	_, ok := validNext[st]
	return st, ok
}

// predecessors lists every status allowed to move to `to`.
func predecessors(to Status) []Status {
	var out []Status
	for _, from := range []Status{StatusPending, StatusProcessing, StatusDelivered} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}
