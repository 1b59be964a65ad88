package processor

import "math/rand/v2"

// amountForCustomer stands in for the billing ledger: a production
// deployment supplies real amounts per customer, so the attempt carries a
// stubbed charge between 50 and 99 dollars. Computed fresh per attempt,
// never persisted.
func amountForCustomer(_ int64) float64 {
	return float64(50 + rand.IntN(50))
}
