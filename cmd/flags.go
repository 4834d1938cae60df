package cmd

import (
	"flag"

	"github.com/etnz/capgains/common"
)

// sessionFlags holds the flags overriding the configuration of a session.
// Empty or zero values keep the configured value.
type sessionFlags struct {
	ledger   string
	lots     string
	period   string
	currency string
	fallback string
	workers  int
	lenient  bool
}

func (s *sessionFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.ledger, "l", "", "Ledger of events (JSONL). Defaults to the configured ledger.")
	f.StringVar(&s.lots, "lots", "", "Lots carried over from a previous period (JSONL). Defaults to the configured lots file.")
	f.StringVar(&s.period, "period", "", "Reporting period (day, week, month, quarter, year). Defaults to the configured period.")
	f.StringVar(&s.currency, "c", "", "Reporting currency. Defaults to the configured currency.")
	f.StringVar(&s.fallback, "fallback", "", `Shortfall policy: "fail" or "zero-cost". Defaults to the configured policy.`)
	f.IntVar(&s.workers, "workers", 0, "Number of assets processed concurrently. Defaults to the configured number.")
	f.BoolVar(&s.lenient, "lenient", false, "Accept out of order events instead of failing.")
}

// config loads the configuration and applies the flags.
func (s *sessionFlags) config() (*common.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if s.ledger != "" {
		cfg.Files.Ledger = s.ledger
	}
	if s.lots != "" {
		cfg.Files.Lots = s.lots
	}
	if s.period != "" {
		cfg.Period = s.period
	}
	if s.currency != "" {
		cfg.Currency = s.currency
	}
	if s.fallback != "" {
		cfg.Fallback = s.fallback
	}
	if s.workers > 0 {
		cfg.Workers = s.workers
	}
	if s.lenient {
		cfg.Strict = false
	}
	return cfg, cfg.Validate()
}
