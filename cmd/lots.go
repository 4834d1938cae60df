package cmd

import (
	"context"
	"flag"
	"os"

	"github.com/etnz/capgains"
	"github.com/etnz/capgains/common"
	"github.com/etnz/capgains/renderer"
	"github.com/google/subcommands"
)

type lotsCmd struct {
	sessionFlags
	skipLedger bool
	raw        bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "display the open lots" }
func (*lotsCmd) Usage() string {
	return `cg lots [-l <ledger>] [-lots <lots>] [-skip-ledger]

  Displays the lots left open after the ledger, oldest first, with their
  remaining quantity and cost basis.

  With -skip-ledger, only the lots file is displayed.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	c.sessionFlags.SetFlags(f)
	f.BoolVar(&c.skipLedger, "skip-ledger", false, "Display the lots file without processing the ledger.")
	f.BoolVar(&c.raw, "raw", false, "Print raw Markdown instead of rendering it for the terminal.")
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config()
	if err != nil {
		return exitErr("loading configuration: %v", err)
	}
	logger := common.NewDefaultLogger(cfg.Logging)

	carry, err := DecodeLots(cfg.Files.Lots, logger)
	if err != nil {
		return exitErr("loading lots: %v", err)
	}

	if !c.skipLedger {
		var events []capgains.Event
		if _, statErr := os.Stat(cfg.Files.Ledger); statErr == nil {
			if events, err = DecodeEvents(cfg.Files.Ledger); err != nil {
				return exitErr("loading ledger: %v", err)
			}
		}
		if _, carry, err = computeGains(cfg, logger, carry, events); err != nil {
			return exitErr("matching lots: %v", err)
		}
	}

	printMarkdown(renderer.LotsMarkdown(carry), c.raw, cfg.Report.WordWrap)
	return subcommands.ExitSuccess
}
