// Package cmd implements the CLI application to compute capital gains.
package cmd

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/capgains"
	"github.com/etnz/capgains/common"
	"github.com/etnz/capgains/renderer"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

// defaultConfigFile is loaded first when present in the working directory.
const defaultConfigFile = "capgains.toml"

var configFile = flag.String("config", "", "Path to a TOML configuration file, loaded after "+defaultConfigFile)

// loadConfig loads the application configuration: defaults, config files,
// then CG_* environment variables.
func loadConfig() (*common.Config, error) {
	return common.LoadConfig(defaultConfigFile, *configFile)
}

// newSession creates the calculation session configured by cfg.
func newSession(cfg *common.Config, logger *log.Logger) (*capgains.Session, error) {
	return capgains.NewSession(capgains.SessionOptions{
		ReportingCurrency: cfg.Currency,
		Strict:            cfg.Strict,
		Workers:           cfg.Workers,
		Logger:            logger,
	})
}

// DecodeEvents decodes the events of a ledger file.
func DecodeEvents(path string) ([]capgains.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening ledger file %q: %w", path, err)
	}
	defer f.Close()
	events, err := capgains.DecodeEvents(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding ledger file %q: %w", path, err)
	}
	return events, nil
}

// EncodeEvents replaces the content of a ledger file.
func EncodeEvents(path string, events []capgains.Event) error {
	var buf bytes.Buffer
	if err := capgains.EncodeEvents(&buf, events); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing ledger file %q: %w", path, err)
	}
	return nil
}

// AppendEvent appends a single event to a ledger file, creating it if needed.
func AppendEvent(path string, e capgains.Event) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q: %w", path, err)
	}
	defer f.Close()
	if err := capgains.EncodeEvent(f, e); err != nil {
		return fmt.Errorf("error writing to ledger file %q: %w", path, err)
	}
	return nil
}

// DecodeLots decodes a carry-over lots file. An empty path is an empty
// carryover, a missing file too, with a warning.
func DecodeLots(path string, logger *log.Logger) (capgains.Carryover, error) {
	if path == "" {
		return capgains.Carryover{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Str("path", path).Msg("lots file does not exist, starting without open lots")
		return capgains.Carryover{}, nil
	}
	if err != nil {
		return capgains.Carryover{}, fmt.Errorf("error opening lots file %q: %w", path, err)
	}
	defer f.Close()
	c, err := capgains.DecodeCarryover(f)
	if err != nil {
		return capgains.Carryover{}, fmt.Errorf("error decoding lots file %q: %w", path, err)
	}
	return c, nil
}

// EncodeLots writes a carry-over lots file.
func EncodeLots(path string, c capgains.Carryover) error {
	var buf bytes.Buffer
	if err := capgains.EncodeCarryover(&buf, c); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing lots file %q: %w", path, err)
	}
	return nil
}

// computeGains runs the ledger over consecutive periods, seeded with carry.
// With the zero-cost fallback each shortfall is covered by a zero cost lot
// and the ledger is run again.
func computeGains(cfg *common.Config, logger *log.Logger, carry capgains.Carryover, events []capgains.Event) ([]*capgains.Result, capgains.Carryover, error) {
	session, err := newSession(cfg, logger)
	if err != nil {
		return nil, carry, err
	}
	period, err := capgains.ParsePeriod(cfg.Period)
	if err != nil {
		return nil, carry, err
	}

	// every retry inserts one event and covers one disposal.
	for range len(events) + 1 {
		results, err := session.RunPeriods(period, carry, events)
		var lotsErr *capgains.InsufficientLotsError
		if errors.As(err, &lotsErr) && cfg.Fallback == common.FallbackZeroCost {
			logger.Warn().
				Str("asset", lotsErr.Asset).
				Int("index", lotsErr.EventIndex).
				Stringer("quantity", lotsErr.Unmatched).
				Msg("covering shortfall with a zero cost lot")
			events = capgains.CoverShortfall(events, lotsErr, cfg.Currency)
			continue
		}
		if err != nil {
			return nil, carry, err
		}
		final := carry
		if len(results) > 0 {
			final = results[len(results)-1].Carryover
		}
		return results, final, nil
	}
	return nil, carry, errors.New("too many shortfalls")
}

// printMarkdown prints a report, rendered for the terminal unless raw.
func printMarkdown(md string, raw bool, width int) {
	if !raw {
		if out, err := renderer.Terminal(md, width); err == nil {
			md = out
		}
	}
	fmt.Print(md)
}

// exitErr reports an error and returns the failure exit status.
func exitErr(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error "+format+"\n", args...)
	return subcommands.ExitFailure
}
