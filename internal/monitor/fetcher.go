package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Reading is one fresh observation returned by a fetcher. Utilization is
// unset for vault protocols.
type Reading struct {
	TVL         decimal.Decimal
	APY         decimal.Decimal
	Utilization decimal.NullDecimal
	FetchedAt   time.Time
}

// Fetcher retrieves the current metrics for one protocol. Implementations
// must be safe to call repeatedly and must respect the context deadline;
// they never persist anything themselves.
type Fetcher interface {
	Protocol() Protocol
	Fetch(ctx context.Context) (Reading, error)
}

// FetchError wraps a transport, timeout or parse failure from a fetcher.
// It is recoverable: the next scheduled cycle simply tries again.
type FetchError struct {
	Protocol string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Protocol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
