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

// lotLine is the JSONL form of a TaxLot.
type lotLine struct {
	ID         string           `json:"id"`
	Asset      string           `json:"asset"`
	AcquiredAt timestamp        `json:"acquired"`
	Original   decimal.Decimal  `json:"original"`
	Remaining  decimal.Decimal  `json:"remaining"`
	Cost       decimal.Decimal  `json:"cost"`
	Unit       decimal.Decimal  `json:"unit"`
	Consumed   *decimal.Decimal `json:"consumed"` // required: the open cost depends on it
	Currency   string           `json:"currency"`
}

// MarshalJSON writes the lot with a canonical key order and every digit.
func (l TaxLot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", l.ID)
	w.Append("asset", l.Asset)
	w.Append("acquired", l.AcquiredAt.Format(time.RFC3339Nano))
	w.Append("original", l.OriginalQuantity.Decimal())
	w.Append("remaining", l.RemainingQuantity.Decimal())
	w.Append("cost", l.CostBasis.Decimal())
	w.Append("unit", l.UnitCostBasis.Decimal())
	w.Append("consumed", l.ConsumedCost.Decimal())
	w.Optional("currency", l.CostBasis.Currency())
	return w.MarshalJSON()
}

// EncodeCarryover writes the open lots in JSONL format, sorted by asset then
// in FIFO order.
func EncodeCarryover(w io.Writer, c Carryover) error {
	for _, l := range c.All() {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal lot %s: %w", l.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write lot %s: %w", l.ID, err)
		}
	}
	return nil
}

// DecodeCarryover reads lots written by EncodeCarryover. The relative order
// of the lots of each asset is kept.
func DecodeCarryover(r io.Reader) (Carryover, error) {
	var lots []TaxLot
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue
		}
		var l lotLine
		if err := json.Unmarshal(lineBytes, &l); err != nil {
			return Carryover{}, fmt.Errorf("could not decode lot on line %d: %w", line, err)
		}
		if l.Consumed == nil {
			return Carryover{}, fmt.Errorf("invalid lot %q on line %d: missing consumed cost", l.ID, line)
		}
		lot := TaxLot{
			ID:                l.ID,
			Asset:             l.Asset,
			OriginalQuantity:  Q(l.Original),
			RemainingQuantity: Q(l.Remaining),
			CostBasis:         M(l.Cost, l.Currency),
			UnitCostBasis:     M(l.Unit, l.Currency),
			ConsumedCost:      M(*l.Consumed, l.Currency),
			AcquiredAt:        time.Time(l.AcquiredAt),
		}
		if err := lot.validate(); err != nil {
			return Carryover{}, fmt.Errorf("invalid lot on line %d: %w", line, err)
		}
		lots = append(lots, lot)
	}
	if err := scanner.Err(); err != nil {
		return Carryover{}, fmt.Errorf("error reading from input: %w", err)
	}
	return NewCarryover(lots...), nil
}
