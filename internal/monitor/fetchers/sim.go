package fetchers

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// SimRange bounds a simulated metric. Production fetchers would replace the
// simulated reads with on-chain or vendor API calls; the ranges keep the
// values realistic in the meantime.
type SimRange struct {
	Min float64
	Max float64
}

func (r SimRange) roll() decimal.Decimal {
	v := r.Min + rand.Float64()*(r.Max-r.Min)
	return decimal.NewFromFloat(v).Round(4)
}
