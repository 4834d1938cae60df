package capgains

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// timestamp reads RFC3339 times, or bare dates as midnight UTC.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	str = strings.TrimSpace(str)
	if str == "" {
		*t = timestamp{}
		return nil
	}
	if on, err := time.Parse(time.RFC3339Nano, str); err == nil {
		*t = timestamp(on)
		return nil
	}
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return fmt.Errorf("invalid time %q, want RFC3339 or %q", str, DateFormat)
	}
	*t = timestamp(on)
	return nil
}

// eventLine is the JSONL form of an Event.
type eventLine struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Time     timestamp       `json:"time"`
	Asset    string          `json:"asset"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// DecodeEvents decodes events from a stream of JSONL data, one event per
// line, in the order of the stream. Events are not sorted nor validated.
func DecodeEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue // Skip empty lines
		}
		var l eventLine
		if err := json.Unmarshal(lineBytes, &l); err != nil {
			return nil, fmt.Errorf("could not decode event on line %d %q: %w", line, string(lineBytes), err)
		}
		events = append(events, Event{
			ID:       l.ID,
			Asset:    l.Asset,
			Kind:     l.Kind,
			Quantity: Q(l.Quantity),
			Value:    M(l.Value, l.Currency),
			Time:     time.Time(l.Time),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return events, nil
}

// MarshalJSON writes the event with a canonical key order.
func (e Event) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", e.Kind)
	w.Append("time", e.Time.Format(time.RFC3339Nano))
	w.Append("asset", e.Asset)
	w.Append("quantity", e.Quantity.Decimal())
	w.Append("value", e.Value.Decimal())
	w.Optional("currency", e.Value.Currency())
	w.Optional("id", e.ID)
	return w.MarshalJSON()
}

// EncodeEvent marshals a single event to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeEvent(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// EncodeEvents writes events in JSONL format, in the given order.
func EncodeEvents(w io.Writer, events []Event) error {
	for _, e := range events {
		if err := EncodeEvent(w, e); err != nil {
			return err
		}
	}
	return nil
}
