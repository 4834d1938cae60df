package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/capgains"
	"github.com/etnz/capgains/importer"
	"github.com/google/subcommands"
)

type importCmd struct {
	mapping string
	output  string
	append  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "converts a JSON export into ledger events" }
func (*importCmd) Usage() string {
	return `cg import -mapping <mapping.toml> [-o <ledger> [-append]] <export.json>

  Reads a JSON export (from a broker or an exchange) and converts each record
  into a ledger event, as described by a TOML mapping file:

    records = "$.trades[*]"      # JSONPath of the records
    time_layout = "2006-01-02"   # optional Go time layout
    currency = "USD"             # used when a record has no currency

    [fields]                     # JSONPath of each field within a record
    id = "$.ref"
    asset = "$.symbol"
    kind = "$.side"
    quantity = "$.qty"
    value = "$.amount"
    currency = "$.ccy"
    time = "$.date"

    [kinds]                      # source labels, "skip" drops the record
    BUY = "acquisition"
    SELL = "disposal"
    DIVIDEND = "skip"

  Records are converted in the order of the export. Events are written to
  stdout, or to -o.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mapping, "mapping", "", "TOML mapping file.")
	f.StringVar(&c.output, "o", "", "Ledger file to write (JSONL). Defaults to stdout.")
	f.BoolVar(&c.append, "append", false, "Append to the -o ledger instead of replacing it.")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.mapping == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "a -mapping file and exactly one export file are required")
		return subcommands.ExitUsageError
	}
	m, err := importer.LoadMapping(c.mapping)
	if err != nil {
		return exitErr("loading mapping: %v", err)
	}

	in, err := os.Open(f.Arg(0))
	if err != nil {
		return exitErr("opening export: %v", err)
	}
	defer in.Close()
	events, err := importer.Import(in, m)
	if err != nil {
		return exitErr("importing %q: %v", f.Arg(0), err)
	}

	var w io.Writer = os.Stdout
	if c.output != "" {
		mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if c.append {
			mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		out, err := os.OpenFile(c.output, mode, 0644)
		if err != nil {
			return exitErr("opening ledger file %q: %v", c.output, err)
		}
		defer out.Close()
		w = out
	}
	if err := capgains.EncodeEvents(w, events); err != nil {
		return exitErr("writing events: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Imported %d events from %s\n", len(events), f.Arg(0))
	return subcommands.ExitSuccess
}
