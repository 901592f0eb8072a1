package ledger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Exchange rates live in a TOML file the operator can edit. The table is
// static for the life of the process: loaded once at startup, never mutated.

type rateEntry struct {
	From string `toml:"from"`
	To   string `toml:"to"`
	Rate string `toml:"rate"`
}

type ratesFile struct {
	Rate []rateEntry `toml:"rate"`
}

const defaultRatesTOML = `# Teller exchange rates.
# Add a [[rate]] block per currency pair; missing pairs fall back to 1.0.

[[rate]]
from = "USD"
to = "EUR"
rate = "0.92"

[[rate]]
from = "EUR"
to = "USD"
rate = "1.09"

[[rate]]
from = "USD"
to = "GBP"
rate = "0.79"

[[rate]]
from = "GBP"
to = "USD"
rate = "1.27"
`

// RateTable answers (from, to) -> rate lookups.
type RateTable struct {
	rates  map[string]decimal.Decimal
	logger *slog.Logger
}

// LoadRates reads the rate table, creating the file with defaults if missing.
func LoadRates(path string, logger *slog.Logger) (*RateTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create rates dir: %w", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(defaultRatesTOML), 0o644); wErr != nil {
			return nil, fmt.Errorf("write default rates: %w", wErr)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates: %w", err)
	}
	return ParseRates(data, logger)
}

// ParseRates parses TOML bytes into a rate table.
func ParseRates(data []byte, logger *slog.Logger) (*RateTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var rf ratesFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rates.toml: %w", err)
	}
	t := &RateTable{rates: make(map[string]decimal.Decimal, len(rf.Rate)), logger: logger}
	for i, e := range rf.Rate {
		from := strings.ToUpper(strings.TrimSpace(e.From))
		to := strings.ToUpper(strings.TrimSpace(e.To))
		if !validCurrency(from) || !validCurrency(to) {
			return nil, fmt.Errorf("rate[%d]: bad currency pair %q -> %q", i, e.From, e.To)
		}
		rate, err := decimal.NewFromString(e.Rate)
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("rate[%d] %s->%s: bad rate %q", i, from, to, e.Rate)
		}
		t.rates[from+to] = rate
	}
	return t, nil
}

// Rate returns the rate from one currency to another. Identical currencies
// and missing pairs both yield 1.0; the missing-pair fallback is logged, not
// an error.
func (t *RateTable) Rate(from, to string) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	if r, ok := t.rates[from+to]; ok {
		return r
	}
	t.logger.Warn("no exchange rate entry, using 1.0", "from", from, "to", to)
	return decimal.NewFromInt(1)
}

// Convert applies the (from, to) rate to cents, rounding half-up to minor
// units, and returns the credited cents together with the rate used.
func (t *RateTable) Convert(cents int64, from, to string) (int64, decimal.Decimal) {
	rate := t.Rate(from, to)
	credited := decimal.New(cents, 0).Mul(rate).Round(0)
	return credited.IntPart(), rate
}
