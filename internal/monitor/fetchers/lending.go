package fetchers

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultwatch/defi-monitor/internal/monitor"
)

// Lending fetches metrics for a lending protocol: TVL from DeFiLlama, APY
// and utilization from the simulator. An optional TVL range makes the
// fetcher self-sufficient when the aggregator is down.
type Lending struct {
	protocol monitor.Protocol
	slug     string
	llama    *DefiLlama
	apy      SimRange
	util     SimRange
	tvl      *SimRange
	logger   *slog.Logger
}

func NewLending(p monitor.Protocol, slug string, llama *DefiLlama, apy, util SimRange, tvl *SimRange, logger *slog.Logger) *Lending {
	return &Lending{
		protocol: p,
		slug:     slug,
		llama:    llama,
		apy:      apy,
		util:     util,
		tvl:      tvl,
		logger:   logger,
	}
}

func (l *Lending) Protocol() monitor.Protocol { return l.protocol }

func (l *Lending) Fetch(ctx context.Context) (monitor.Reading, error) {
	tvl, err := l.llama.TVL(ctx, l.slug)
	if err != nil {
		if l.tvl == nil {
			return monitor.Reading{}, &monitor.FetchError{Protocol: l.protocol.Name, Err: err}
		}
		tvl = l.tvl.roll()
		l.logger.Warn("defillama unavailable, using simulated tvl",
			"protocol", l.protocol.Name, "tvl", tvl.String(), "error", err)
	}

	return monitor.Reading{
		TVL:         tvl,
		APY:         l.apy.roll(),
		Utilization: decimal.NullDecimal{Decimal: l.util.roll(), Valid: true},
		FetchedAt:   time.Now().UTC(),
	}, nil
}
