package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

// Helper function to create a temporary file with content.
func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

// run parses args for c and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Failed to parse %v: %v", args, err)
	}
	return c.Execute(context.Background(), f)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(content)
}

const twoYearsLedger = `{"kind":"buy","time":"2024-01-02","asset":"ACME","quantity":10,"value":1000,"currency":"USD"}
{"kind":"sell","time":"2025-03-01","asset":"ACME","quantity":4,"value":600,"currency":"USD"}
`

func TestFmt(t *testing.T) {
	ledger := createTempFile(t, "ledger.jsonl", `{"time":"2024-01-02","asset":"ACME","kind":"buy","quantity":10,"value":1000.50,"currency":"USD"}

{"currency":"USD","value":70,"quantity":1,"asset":"ACME","time":"2024-02-01T10:00:00Z","kind":"disposal","id":"s-1"}
`)
	want := `{"kind":"acquisition","time":"2024-01-02T00:00:00Z","asset":"ACME","quantity":10,"value":1000.5,"currency":"USD"}
{"kind":"disposal","time":"2024-02-01T10:00:00Z","asset":"ACME","quantity":1,"value":70,"currency":"USD","id":"s-1"}
`

	if status := run(t, &fmtCmd{}, "-l", ledger); status != subcommands.ExitSuccess {
		t.Fatalf("fmt = %v, want ExitSuccess", status)
	}
	if got := readFile(t, ledger); got != want {
		t.Errorf("fmt output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestFmt_Order(t *testing.T) {
	content := `{"kind":"sell","time":"2024-03-01","asset":"ACME","quantity":1,"value":10}
{"kind":"buy","time":"2024-01-01","asset":"ACME","quantity":1,"value":5}
`
	ledger := createTempFile(t, "ledger.jsonl", content)

	if status := run(t, &fmtCmd{}, "-l", ledger); status != subcommands.ExitFailure {
		t.Errorf("fmt of an out of order ledger = %v, want ExitFailure", status)
	}
	if got := readFile(t, ledger); got != content {
		t.Errorf("a failed fmt modified the ledger:\n%s", got)
	}

	output := filepath.Join(t.TempDir(), "sorted.jsonl")
	if status := run(t, &fmtCmd{}, "-l", ledger, "-sort", "-o", output); status != subcommands.ExitSuccess {
		t.Fatalf("fmt -sort = %v, want ExitSuccess", status)
	}
	lines := strings.Split(strings.TrimSpace(readFile(t, output)), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"kind":"acquisition"`) {
		t.Errorf("fmt -sort output:\n%s", strings.Join(lines, "\n"))
	}
}

func TestAdd(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger.jsonl")

	if status := run(t, &addCmd{}, "-l", ledger, "-kind", "buy", "-a", "ACME", "-q", "10", "-v", " 1000.123456789012345678 ", "-t", "2024-01-02"); status != subcommands.ExitSuccess {
		t.Fatalf("add buy = %v, want ExitSuccess", status)
	}
	if status := run(t, &addCmd{}, "-l", ledger, "-kind", "sell", "-a", "ACME", "-q", "4", "-v", "600", "-t", "2024-06-01T12:00:00Z", "-id", "s-1"); status != subcommands.ExitSuccess {
		t.Fatalf("add sell = %v, want ExitSuccess", status)
	}

	want := `{"kind":"acquisition","time":"2024-01-02T00:00:00Z","asset":"ACME","quantity":10,"value":1000.123456789012345678,"currency":"USD"}
{"kind":"disposal","time":"2024-06-01T12:00:00Z","asset":"ACME","quantity":4,"value":600,"currency":"USD","id":"s-1"}
`
	if got := readFile(t, ledger); got != want {
		t.Errorf("ledger mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}

	// older than the last event of ACME
	if status := run(t, &addCmd{}, "-l", ledger, "-kind", "buy", "-a", "ACME", "-q", "1", "-v", "1", "-t", "2024-03-01"); status != subcommands.ExitFailure {
		t.Errorf("add out of order = %v, want ExitFailure", status)
	}
	// other assets have their own order
	if status := run(t, &addCmd{}, "-l", ledger, "-kind", "buy", "-a", "BETA", "-q", "1", "-v", "1", "-t", "2024-03-01"); status != subcommands.ExitSuccess {
		t.Errorf("add BETA = %v, want ExitSuccess", status)
	}
}

func TestAdd_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"-kind", "gift", "-a", "X", "-q", "1", "-v", "1"}},
		{"bad quantity", []string{"-kind", "buy", "-a", "X", "-q", "one", "-v", "1"}},
		{"zero quantity", []string{"-kind", "buy", "-a", "X", "-q", "0", "-v", "1"}},
		{"negative value", []string{"-kind", "buy", "-a", "X", "-q", "1", "-v", "-1"}},
		{"bad value", []string{"-kind", "buy", "-a", "X", "-q", "1", "-v", "12,50"}},
		{"missing asset", []string{"-kind", "buy", "-q", "1", "-v", "1"}},
		{"bad time", []string{"-kind", "buy", "-a", "X", "-q", "1", "-v", "1", "-t", "someday"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := filepath.Join(t.TempDir(), "ledger.jsonl")
			args := append([]string{"-l", ledger}, tc.args...)
			if status := run(t, &addCmd{}, args...); status != subcommands.ExitUsageError {
				t.Errorf("add = %v, want ExitUsageError", status)
			}
			if _, err := os.Stat(ledger); err == nil {
				t.Errorf("add created the ledger on error")
			}
		})
	}
}

func TestGains(t *testing.T) {
	ledger := createTempFile(t, "ledger.jsonl", twoYearsLedger)
	dir := t.TempDir()
	report := filepath.Join(dir, "report.md")
	lots := filepath.Join(dir, "lots.jsonl")
	html := filepath.Join(dir, "report.html")

	status := run(t, &gainsCmd{}, "-l", ledger, "-o", report, "-save-lots", lots, "-html", html)
	if status != subcommands.ExitSuccess {
		t.Fatalf("gains = %v, want ExitSuccess", status)
	}

	md := readFile(t, report)
	for _, want := range []string{
		"# Capital Gains Report from 2024-01-01 to 2025-12-31",
		"| 2024 | 0 |",
		"| 2025 | 1 | $600.00 | $400.00 | $0.00 | $0.00 | $200.00 | $0.00 | +$200.00 |",
		"| long (424d) |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report does not contain %q:\n%s", want, md)
		}
	}

	saved := readFile(t, lots)
	if !strings.Contains(saved, `"remaining":6`) || !strings.Contains(saved, `"consumed":400`) {
		t.Errorf("saved lots = %s, want 6 remaining units with 400 consumed", saved)
	}
	if page := readFile(t, html); !strings.Contains(page, "<table>") {
		t.Errorf("HTML report has no table:\n%s", page)
	}

	// The saved lots seed the next ledger.
	next := createTempFile(t, "next.jsonl", `{"kind":"sell","time":"2026-01-10","asset":"ACME","quantity":6,"value":540,"currency":"USD"}`+"\n")
	if status := run(t, &gainsCmd{}, "-l", next, "-lots", lots, "-o", report, "-period", "month"); status != subcommands.ExitSuccess {
		t.Fatalf("gains with lots = %v, want ExitSuccess", status)
	}
	if md := readFile(t, report); !strings.Contains(md, "| 2026-01 | 1 | $540.00 | $600.00 |") {
		t.Errorf("report does not use the saved lots:\n%s", md)
	}
}

func TestGains_Fallback(t *testing.T) {
	ledger := createTempFile(t, "ledger.jsonl", `{"kind":"buy","time":"2024-01-02","asset":"ACME","quantity":2,"value":100,"currency":"USD"}
{"kind":"sell","time":"2024-02-01","asset":"ACME","quantity":5,"value":300,"currency":"USD","id":"s-1"}
`)
	report := filepath.Join(t.TempDir(), "report.md")

	if status := run(t, &gainsCmd{}, "-l", ledger, "-o", report); status != subcommands.ExitFailure {
		t.Errorf("gains with a shortfall = %v, want ExitFailure", status)
	}

	if status := run(t, &gainsCmd{}, "-l", ledger, "-o", report, "-fallback", "zero-cost"); status != subcommands.ExitSuccess {
		t.Fatalf("gains -fallback zero-cost = %v, want ExitSuccess", status)
	}
	md := readFile(t, report)
	// 2 units cost 100, the 3 missing units cost nothing: 300 - 100.
	if !strings.Contains(md, "zero-cost:s-1") || !strings.Contains(md, "**+$200.00** |") {
		t.Errorf("report does not cover the shortfall:\n%s", md)
	}
}

func TestImport(t *testing.T) {
	mapping := createTempFile(t, "mapping.toml", `
records = "$.trades[*]"
currency = "USD"

[fields]
asset = "$.symbol"
kind = "$.side"
quantity = "$.qty"
value = "$.amount"
time = "$.date"

[kinds]
B = "acquisition"
S = "disposal"
`)
	export := createTempFile(t, "export.json", `{"trades": [
		{"symbol": "ACME", "side": "B", "qty": 3, "amount": 30.5, "date": "2024-01-02"},
		{"symbol": "ACME", "side": "S", "qty": 1, "amount": 12, "date": "2024-02-02"}
	]}`)
	ledger := filepath.Join(t.TempDir(), "ledger.jsonl")

	if status := run(t, &importCmd{}, "-mapping", mapping, "-o", ledger, export); status != subcommands.ExitSuccess {
		t.Fatalf("import = %v, want ExitSuccess", status)
	}
	want := `{"kind":"acquisition","time":"2024-01-02T00:00:00Z","asset":"ACME","quantity":3,"value":30.5,"currency":"USD"}
{"kind":"disposal","time":"2024-02-02T00:00:00Z","asset":"ACME","quantity":1,"value":12,"currency":"USD"}
`
	if got := readFile(t, ledger); got != want {
		t.Errorf("imported ledger mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}

	if status := run(t, &importCmd{}, "-o", ledger, export); status != subcommands.ExitUsageError {
		t.Errorf("import without mapping = %v, want ExitUsageError", status)
	}
}

func TestChart(t *testing.T) {
	ledger := createTempFile(t, "ledger.jsonl", twoYearsLedger+
		`{"kind":"sell","time":"2025-04-01","asset":"ACME","quantity":1,"value":50,"currency":"USD"}`+"\n")
	png := filepath.Join(t.TempDir(), "gains.png")

	if status := run(t, &chartCmd{}, "-l", ledger, "-period", "quarter", "-o", png); status != subcommands.ExitSuccess {
		t.Fatalf("chart = %v, want ExitSuccess", status)
	}
	if content := readFile(t, png); !strings.HasPrefix(content, "\x89PNG") {
		t.Errorf("chart did not write a PNG image")
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, name := range []string{"gains", "lots", "chart", "fmt", "add", "import"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("Completion() has no %q subcommand", name)
		}
	}
	if _, ok := c.Sub["gains"].Flags["save-lots"]; !ok {
		t.Errorf("Completion() gains has no -save-lots flag")
	}
}
