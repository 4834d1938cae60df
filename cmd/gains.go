package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/capgains/common"
	"github.com/etnz/capgains/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	sessionFlags
	saveLots   string
	html       string
	output     string
	raw        bool
	skipLots   bool
	skipAssets bool
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized capital gains per period, matching lots first in first out" }
func (*gainsCmd) Usage() string {
	return `cg gains [-l <ledger>] [-lots <lots>] [-period <period>] [-save-lots <lots>] [-html <file>] [-o <file>]

  Matches every disposal of the ledger against the oldest open lots of the
  same asset and reports the realized gains and losses of each period, split
  between short and long term.

  The lots left open at the end can be saved with -save-lots, and used as
  the starting point of the next ledger with -lots.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	c.sessionFlags.SetFlags(f)
	f.StringVar(&c.saveLots, "save-lots", "", "Write the lots open at the end of the ledger to this file (JSONL).")
	f.StringVar(&c.html, "html", "", "Write the report as an HTML page to this file.")
	f.StringVar(&c.output, "o", "", "Write the Markdown report to this file instead of the terminal.")
	f.BoolVar(&c.raw, "raw", false, "Print raw Markdown instead of rendering it for the terminal.")
	f.BoolVar(&c.skipLots, "skip-lots", false, "Do not list the matched lots.")
	f.BoolVar(&c.skipAssets, "skip-assets", false, "Do not list the gains per asset.")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config()
	if err != nil {
		return exitErr("loading configuration: %v", err)
	}
	logger := common.NewDefaultLogger(cfg.Logging)

	events, err := DecodeEvents(cfg.Files.Ledger)
	if err != nil {
		return exitErr("loading ledger: %v", err)
	}
	carry, err := DecodeLots(cfg.Files.Lots, logger)
	if err != nil {
		return exitErr("loading lots: %v", err)
	}

	results, final, err := computeGains(cfg, logger, carry, events)
	if err != nil {
		return exitErr("calculating gains: %v", err)
	}

	md := renderer.RenderGains(renderer.NewGains(cfg.Currency, results), renderer.GainsRenderOptions{
		SkipPortions: c.skipLots,
		SkipAssets:   c.skipAssets,
	})

	if c.saveLots != "" {
		if err := EncodeLots(c.saveLots, final); err != nil {
			return exitErr("saving lots: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %d open lots to %s\n", final.Len(), c.saveLots)
	}

	if c.html != "" {
		page, err := renderer.HTMLPage("Capital Gains", md)
		if err != nil {
			return exitErr("rendering HTML: %v", err)
		}
		if err := os.WriteFile(c.html, []byte(page), 0644); err != nil {
			return exitErr("writing %q: %v", c.html, err)
		}
	}

	if c.output != "" {
		if err := os.WriteFile(c.output, []byte(md), 0644); err != nil {
			return exitErr("writing %q: %v", c.output, err)
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(md, c.raw, cfg.Report.WordWrap)
	return subcommands.ExitSuccess
}
