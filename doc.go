// Package capgains computes realized capital gains and losses of asset
// disposals using first-in-first-out lot matching.
//
// The engine works on a stream of normalized ledger events:
//   - Acquisitions open a TaxLot at the tail of the LotStore of their asset.
//   - Disposals are matched by Match against the oldest open lots first,
//     splitting the last lot when needed, and produce one MatchedPortion per
//     lot consumed, classified Short or Long by Classify.
//   - Aggregate folds the portions of a reporting period into a PeriodSummary.
//   - A Session orchestrates a period: it is seeded with the Carryover of the
//     previous period and returns the summary and the next Carryover.
//
// Every amount is an exact decimal. Runs are deterministic: the same
// carryover and events always give the same result, which makes it safe to
// recompute a period after its source events were corrected.
//
// Events and carried-over lots are persisted as JSONL (see DecodeEvents and
// DecodeCarryover) by the `cg` command-line tool.
package capgains
