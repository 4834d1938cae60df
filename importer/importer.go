package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/capgains"
	"github.com/shopspring/decimal"
)

// Import reads a JSON document from r and returns one event per record
// selected by m, in document order. Records whose kind maps to "skip" are
// dropped. Events are not validated: that is the session's job.
func Import(r io.Reader, m *Mapping) ([]capgains.Event, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber() // numbers stay exact
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode JSON document: %w", err)
	}

	selected, err := jsonpath.Get(m.Records, doc)
	if err != nil {
		return nil, fmt.Errorf("error selecting records %q: %w", m.Records, err)
	}
	records, ok := selected.([]any)
	if !ok {
		return nil, fmt.Errorf("records %q is not an array but %T", m.Records, selected)
	}
	// A path that matches no key yields an empty array, not an error.
	if len(records) == 0 {
		return nil, fmt.Errorf("records %q selected nothing", m.Records)
	}

	var events []capgains.Event
	for i, rec := range records {
		e, keep, err := m.event(rec)
		if err != nil {
			return nil, fmt.Errorf("record #%d: %w", i, err)
		}
		if keep {
			events = append(events, e)
		}
	}
	return events, nil
}

// event maps a single record.
func (m *Mapping) event(rec any) (e capgains.Event, keep bool, err error) {
	label, err := m.str(rec, "kind", m.Fields.Kind, true)
	if err != nil {
		return e, false, err
	}
	kind, err := m.kind(label)
	if err != nil {
		return e, false, err
	}
	if kind == 0 {
		return e, false, nil
	}
	e.Kind = kind

	if e.ID, err = m.str(rec, "id", m.Fields.ID, false); err != nil {
		return e, false, err
	}
	if e.Asset, err = m.str(rec, "asset", m.Fields.Asset, true); err != nil {
		return e, false, err
	}
	qty, err := m.number(rec, "quantity", m.Fields.Quantity)
	if err != nil {
		return e, false, err
	}
	value, err := m.number(rec, "value", m.Fields.Value)
	if err != nil {
		return e, false, err
	}
	cur, err := m.str(rec, "currency", m.Fields.Currency, false)
	if err != nil {
		return e, false, err
	}
	if cur == "" {
		cur = m.Currency
	}
	ts, err := m.str(rec, "time", m.Fields.Time, true)
	if err != nil {
		return e, false, err
	}
	if e.Time, err = m.parseTime(ts); err != nil {
		return e, false, err
	}

	e.Quantity = capgains.Q(qty)
	e.Value = capgains.M(value, strings.ToUpper(cur))
	return e, true, nil
}

// kind resolves a source label. It returns 0 for skipped records.
func (m *Mapping) kind(label string) (capgains.Kind, error) {
	if len(m.Kinds) == 0 {
		return capgains.ParseKind(label)
	}
	mapped, ok := m.Kinds[label]
	if !ok {
		return 0, fmt.Errorf("kind label %q is not mapped", label)
	}
	if mapped == skip {
		return 0, nil
	}
	return capgains.ParseKind(mapped)
}

// lookup evaluates path on rec. Absent optional fields yield nil.
func lookup(rec any, name, path string, required bool) (any, error) {
	if path == "" {
		return nil, nil
	}
	v, err := jsonpath.Get(path, rec)
	if err != nil {
		if required {
			return nil, fmt.Errorf("field %s %q: %w", name, path, err)
		}
		return nil, nil
	}
	// because jsonpath may return a list of one answer for a single answer.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			v = nil
		} else {
			v = list[0]
		}
	}
	if v == nil && required {
		return nil, fmt.Errorf("field %s %q is empty", name, path)
	}
	return v, nil
}

func (m *Mapping) str(rec any, name, path string, required bool) (string, error) {
	v, err := lookup(rec, name, path, required)
	if err != nil || v == nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (m *Mapping) number(rec any, name, path string) (decimal.Decimal, error) {
	v, err := lookup(rec, name, path, true)
	if err != nil {
		return decimal.Zero, err
	}
	var d decimal.Decimal
	switch v := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		d, err = decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		err = fmt.Errorf("unsupported type %T", v)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %s %q: %w", name, path, err)
	}
	if m.Absolute {
		d = d.Abs()
	}
	return d, nil
}

func (m *Mapping) parseTime(s string) (time.Time, error) {
	if m.TimeLayout != "" {
		t, err := time.Parse(m.TimeLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q for layout %q: %w", s, m.TimeLayout, err)
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(capgains.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want RFC3339 or %q", s, capgains.DateFormat)
	}
	return t, nil
}
