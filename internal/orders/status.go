package orders

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPlaced     Status = "PLACED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// PROCESSING and COMPLETED are reachable states, but nothing here transitions
// into COMPLETED; that belongs to the fulfillment workflow downstream.
var validNext = map[Status]map[Status]bool{
	StatusDraft:      {StatusPlaced: true, StatusCancelled: true},
	StatusPlaced:     {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusCompleted: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusPlaced, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}
