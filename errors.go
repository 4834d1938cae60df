package capgains

import (
	"fmt"
	"time"
)

// InsufficientLotsError reports a disposal that could not be fully matched
// because the asset ran out of open lots. The engine never truncates such a
// disposal: recovery (for instance injecting a ZeroCostLot) is up to the caller.
type InsufficientLotsError struct {
	Asset      string
	Unmatched  Quantity  // quantity left without a lot
	EventIndex int       // index of the disposal in the session input, -1 if unknown
	EventID    string    // reference of the disposal
	At         time.Time // time of the disposal
}

func (e *InsufficientLotsError) Error() string {
	return fmt.Sprintf("insufficient lots for %s: disposal %s on %s is short by %s", e.Asset, e.EventID, e.At.Format(time.RFC3339), e.Unmatched)
}

// OutOfOrderEventError reports an event that is older than the previous event
// processed for the same asset.
type OutOfOrderEventError struct {
	Asset      string
	EventIndex int
	At         time.Time // time of the rejected event
	Previous   time.Time // newest time already processed for the asset
}

func (e *OutOfOrderEventError) Error() string {
	return fmt.Sprintf("event #%d for %s on %s is before previous event on %s", e.EventIndex, e.Asset, e.At.Format(time.RFC3339), e.Previous.Format(time.RFC3339))
}

// InvalidEventError reports a malformed event.
type InvalidEventError struct {
	EventIndex int
	Reason     string
}

func (e *InvalidEventError) Error() string {
	if e.EventIndex < 0 {
		return "invalid event: " + e.Reason
	}
	return fmt.Sprintf("invalid event #%d: %s", e.EventIndex, e.Reason)
}
