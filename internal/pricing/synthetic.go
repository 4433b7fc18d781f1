package pricing

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SyntheticPrice generates a deterministic fallback price for a symbol.
// The base lands between 50 and 500 from a hash of the symbol, with a ±5
// oscillation keyed to the day so the same symbol yields a stable but
// slightly drifting price across days. This path never fails.
func SyntheticPrice(symbol string, now time.Time) decimal.Decimal {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(strings.TrimSpace(symbol))))
	hash := h.Sum32()

	base := 50 + float64(hash%450)

	day := now.Unix() / (24 * 60 * 60)
	variance := math.Sin(float64(day)+float64(hash)) * 5

	return decimal.NewFromFloat(base + variance).Round(2)
}
