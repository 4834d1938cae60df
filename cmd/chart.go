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

type chartCmd struct {
	sessionFlags
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "chart the net realized gain or loss per period" }
func (*chartCmd) Usage() string {
	return `cg chart [-l <ledger>] [-period <period>] [-o <file>]

  Writes a PNG bar chart of the net realized gain or loss of each period.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	c.sessionFlags.SetFlags(f)
	f.StringVar(&c.output, "o", "gains.png", "PNG file to write.")
}

func (c *chartCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	results, _, err := computeGains(cfg, logger, carry, events)
	if err != nil {
		return exitErr("calculating gains: %v", err)
	}

	png, err := renderer.NetGainChart(results)
	if err != nil {
		return exitErr("drawing chart: %v", err)
	}
	if err := os.WriteFile(c.output, png, 0644); err != nil {
		return exitErr("writing %q: %v", c.output, err)
	}
	fmt.Fprintf(os.Stderr, "Chart of %d periods written to %s\n", len(results), c.output)
	return subcommands.ExitSuccess
}
