package rates

import "fmt"

// DefaultRate applies to any directed pair absent from the table.
const DefaultRate = 1.0

// Table is a directed exchange rate lookup between token pairs. Rates and
// inverse rates are tabulated independently and are not guaranteed to be
// exact reciprocals; the swap matcher tolerates the resulting round-trip
// error.
type Table struct {
	rates map[string]float64
}

// NewTable constructs an empty rate table.
func NewTable() *Table {
	return &Table{rates: make(map[string]float64)}
}

// DefaultTable returns the table seeded with the venue's standing pairs.
func DefaultTable() *Table {
	t := NewTable()
	for pair, rate := range map[string]float64{
		"USDC-ANOMA": 2,
		"ANOMA-USDC": 0.5,
		"ETH-USDC":   3500,
		"USDC-ETH":   0.0002857,
		"BNB-AVAX":   1.2,
		"AVAX-BNB":   0.83,
		"USDT-USDC":  1.0,
		"USDC-USDT":  1.0,
		"ETH-ANOMA":  7000,
		"ANOMA-ETH":  0.0001429,
		"BNB-USDC":   600.0,
		"USDC-BNB":   0.00167,
		"AVAX-USDC":  40.0,
		"USDC-AVAX":  0.025,
		"ETH-BNB":    5.83,
		"BNB-ETH":    0.171,
		"AVAX-ETH":   0.0114,
		"ETH-AVAX":   87.5,
		"BNB-ANOMA":  1200.0,
		"ANOMA-BNB":  0.00083,
		"AVAX-ANOMA": 80.0,
		"ANOMA-AVAX": 0.0125,
		"USDT-BNB":   0.00167,
		"BNB-USDT":   600.0,
		"USDT-AVAX":  0.025,
		"AVAX-USDT":  40.0,
		"USDT-ETH":   0.0002857,
		"ETH-USDT":   3500.0,
		"USDT-ANOMA": 2.0,
		"ANOMA-USDT": 0.5,
	} {
		t.rates[pair] = rate
	}
	return t
}

func key(from, to string) string { return fmt.Sprintf("%s-%s", from, to) }

// Rate resolves the directed rate from one token to another, falling back to
// DefaultRate when the pair is not tabulated.
func (t *Table) Rate(from, to string) float64 {
	if rate, ok := t.rates[key(from, to)]; ok {
		return rate
	}
	return DefaultRate
}

// Set overrides the directed rate for a pair.
func (t *Table) Set(from, to string, rate float64) {
	t.rates[key(from, to)] = rate
}

// Snapshot returns a copy of the full table keyed "FROM-TO".
func (t *Table) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(t.rates))
	for pair, rate := range t.rates {
		out[pair] = rate
	}
	return out
}

// Len returns the number of tabulated pairs.
func (t *Table) Len() int { return len(t.rates) }
