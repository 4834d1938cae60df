package capgains

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the kind of a ledger event.
type Kind int

const (
	// Acquisition opens a new lot.
	Acquisition Kind = iota + 1
	// Disposal consumes open lots, oldest first.
	Disposal
)

func (k Kind) String() string {
	switch k {
	case Acquisition:
		return "acquisition"
	case Disposal:
		return "disposal"
	default:
		return "unknown"
	}
}

// ParseKind parses a Kind, accepting "buy" and "sell" as synonyms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "acquisition", "acquire", "buy":
		return Acquisition, nil
	case "disposal", "dispose", "sell":
		return Disposal, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) (err error) {
	*k, err = ParseKind(string(text))
	return err
}

// Event is a normalized acquisition or disposal of an asset. It is the
// immutable input of the engine.
type Event struct {
	ID       string    // optional reference, derived when empty
	Asset    string    // asset symbol
	Kind     Kind      // Acquisition or Disposal
	Quantity Quantity  // strictly positive
	Value    Money     // total cost of an acquisition, or total proceeds of a disposal
	Time     time.Time // event time
}

// NewAcquisition returns an acquisition of quantity units of asset for a total cost.
func NewAcquisition(at time.Time, asset string, quantity Quantity, cost Money) Event {
	return Event{Asset: asset, Kind: Acquisition, Quantity: quantity, Value: cost, Time: at}
}

// NewDisposal returns a disposal of quantity units of asset for total proceeds.
func NewDisposal(at time.Time, asset string, quantity Quantity, proceeds Money) Event {
	return Event{Asset: asset, Kind: Disposal, Quantity: quantity, Value: proceeds, Time: at}
}

// Validate checks the event is well formed. currency is the expected currency
// of the event value; an empty currency on either side matches anything.
func (e Event) Validate(currency string) error {
	invalid := func(format string, args ...any) error {
		return &InvalidEventError{EventIndex: -1, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case strings.TrimSpace(e.Asset) == "":
		return invalid("missing asset")
	case e.Kind != Acquisition && e.Kind != Disposal:
		return invalid("unknown kind %d for %s", int(e.Kind), e.Asset)
	case e.Time.IsZero():
		return invalid("missing timestamp for %s %s", e.Kind, e.Asset)
	case !e.Quantity.IsPositive():
		return invalid("%s %s quantity must be positive, got %s", e.Kind, e.Asset, e.Quantity)
	case e.Value.IsNegative():
		return invalid("%s %s value must not be negative, got %s", e.Kind, e.Asset, e.Value.Decimal())
	case e.Value.Currency() != "" && currency != "" && e.Value.Currency() != currency:
		return invalid("%s %s is in %s, want %s", e.Kind, e.Asset, e.Value.Currency(), currency)
	}
	return nil
}

// eventNamespace scopes the derived event references.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/capgains/event"))

// Ref returns the event reference: its ID, or a reference derived from its
// position in the input and its content. Derived references are stable across
// runs on the same input.
func (e Event) Ref(index int) string {
	if e.ID != "" {
		return e.ID
	}
	key := strings.Join([]string{
		strconv.Itoa(index),
		e.Asset,
		e.Kind.String(),
		e.Time.UTC().Format(time.RFC3339Nano),
		e.Quantity.String(),
		e.Value.Decimal().String(),
	}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}

// AssignRefs returns a copy of events where every empty ID is replaced by
// the derived reference of the event at that index.
func AssignRefs(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		e.ID = e.Ref(i)
		out[i] = e
	}
	return out
}
