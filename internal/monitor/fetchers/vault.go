package fetchers

import (
	"context"
	"log/slog"
	"time"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
)

// Vault fetches metrics for a vault protocol. Vaults have no utilization
// rate, so the reading leaves it unset.
type Vault struct {
	protocol monitor.Protocol
	slug     string
	llama    *DefiLlama
	apy      SimRange
	tvl      *SimRange
	logger   *slog.Logger
}

func NewVault(p monitor.Protocol, slug string, llama *DefiLlama, apy SimRange, tvl *SimRange, logger *slog.Logger) *Vault {
	return &Vault{
		protocol: p,
		slug:     slug,
		llama:    llama,
		apy:      apy,
		tvl:      tvl,
		logger:   logger,
	}
}

func (v *Vault) Protocol() monitor.Protocol { return v.protocol }

func (v *Vault) Fetch(ctx context.Context) (monitor.Reading, error) {
	tvl, err := v.llama.TVL(ctx, v.slug)
	if err != nil {
		if v.tvl == nil {
			return monitor.Reading{}, &monitor.FetchError{Protocol: v.protocol.Name, Err: err}
		}
		tvl = v.tvl.roll()
		v.logger.Warn("defillama unavailable, using simulated tvl",
			"protocol", v.protocol.Name, "tvl", tvl.String(), "error", err)
	}

	return monitor.Reading{
		TVL:       tvl,
		APY:       v.apy.roll(),
		FetchedAt: time.Now().UTC(),
	}, nil
}
