package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/capgains"
	"github.com/google/subcommands"
)

type fmtCmd struct {
	sessionFlags
	output string
	sort   bool
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `cg fmt [-l <ledger>] [-o <file>] [-sort]

  Validates and formats the ledger file. This command reads all events,
  validates them, checks that the events of each asset are in time order,
  and writes them back in a canonical JSONL format.
  By default, it formats the ledger in-place.

  With -sort, events are first sorted by time. Events at the same time keep
  their relative order.
`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {
	p.sessionFlags.SetFlags(f)
	f.StringVar(&p.output, "o", "", "Write the formatted ledger to this file (JSONL) instead of in-place.")
	f.BoolVar(&p.sort, "sort", false, "Sort events by time.")
}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := p.config()
	if err != nil {
		return exitErr("loading configuration: %v", err)
	}
	events, err := DecodeEvents(cfg.Files.Ledger)
	if err != nil {
		return exitErr("loading ledger: %v", err)
	}

	if p.sort {
		slices.SortStableFunc(events, func(a, b capgains.Event) int { return a.Time.Compare(b.Time) })
	}

	for i, e := range events {
		if err := e.Validate(cfg.Currency); err != nil {
			err.(*capgains.InvalidEventError).EventIndex = i
			return exitErr("%v", err)
		}
	}
	if cfg.Strict {
		if err := capgains.CheckOrder(events); err != nil {
			return exitErr("%v (use -sort to reorder the ledger)", err)
		}
	}

	output := p.output
	if output == "" {
		output = cfg.Files.Ledger
	}
	if err := EncodeEvents(output, events); err != nil {
		return exitErr("%v", err)
	}
	fmt.Fprintf(os.Stderr, "Ledger file %q has been formatted (%d events).\n", output, len(events))
	return subcommands.ExitSuccess
}
