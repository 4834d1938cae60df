package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/capgains"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// addCmd appends an acquisition or a disposal to the ledger.
type addCmd struct {
	sessionFlags
	kind     string
	asset    string
	quantity string
	value    string
	when     string
	id       string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "appends an acquisition or a disposal to the ledger" }
func (*addCmd) Usage() string {
	return `cg add -kind <buy|sell> -a <asset> -q <quantity> -v <value> [-t <time>] [-id <id>]

  Appends an event to the ledger. The value is the total cost of an
  acquisition, or the total proceeds of a disposal, in the reporting currency
  unless -c is set.

  The time is either RFC3339 (2024-05-01T15:04:05Z), a date (2024-05-01), or
  a relative date (0d for today, -1w for a week ago).

Usage Examples:
$ cg add -kind buy -a ACME -q 10 -v 1000 -t 2024-01-15
$ cg add -kind sell -a ACME -q 4 -v 620.50
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.sessionFlags.SetFlags(f)
	f.StringVar(&c.kind, "kind", "", "Event kind: buy (acquisition) or sell (disposal).")
	f.StringVar(&c.asset, "a", "", "Asset symbol.")
	f.StringVar(&c.quantity, "q", "", "Quantity, a positive decimal.")
	f.StringVar(&c.value, "v", "", "Total cost or proceeds, a non negative decimal.")
	f.StringVar(&c.when, "t", "0d", "Time of the event.")
	f.StringVar(&c.id, "id", "", "Optional reference of the event.")
}

func (c *addCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config()
	if err != nil {
		return exitErr("loading configuration: %v", err)
	}

	e, err := c.event(cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := e.Validate(cfg.Currency); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	// the new event must not break the time order of its asset.
	if cfg.Strict {
		if _, statErr := os.Stat(cfg.Files.Ledger); statErr == nil {
			events, err := DecodeEvents(cfg.Files.Ledger)
			if err != nil {
				return exitErr("loading ledger: %v", err)
			}
			if err := capgains.CheckOrder(append(events, e)); err != nil {
				return exitErr("%v", err)
			}
		}
	}

	if err := AppendEvent(cfg.Files.Ledger, e); err != nil {
		return exitErr("%v", err)
	}
	fmt.Fprintf(os.Stderr, "Successfully appended %s of %s %s to %s\n", e.Kind, e.Quantity, e.Asset, cfg.Files.Ledger)
	return subcommands.ExitSuccess
}

// event builds the event described by the flags.
func (c *addCmd) event(currency string) (capgains.Event, error) {
	kind, err := capgains.ParseKind(c.kind)
	if err != nil {
		return capgains.Event{}, err
	}
	q, err := capgains.ParseQuantity(c.quantity)
	if err != nil {
		return capgains.Event{}, fmt.Errorf("invalid quantity %q: %w", c.quantity, err)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(c.value))
	if err != nil {
		return capgains.Event{}, fmt.Errorf("invalid value %q: %w", c.value, err)
	}
	at, err := parseTime(c.when)
	if err != nil {
		return capgains.Event{}, err
	}
	return capgains.Event{
		ID:       c.id,
		Asset:    strings.TrimSpace(c.asset),
		Kind:     kind,
		Quantity: q,
		Value:    capgains.M(v, currency),
		Time:     at,
	}, nil
}

// parseTime accepts RFC3339 times or anything ParseDate accepts.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	d, err := capgains.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}
