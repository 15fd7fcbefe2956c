package monitor

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

// Rule identifiers. Rules are evaluated in this order so downstream
// processing sees findings deterministically.
const (
	RuleTVLDrop         = "tvl_drop_24h"
	RuleAPYLow          = "apy_low"
	RuleUtilizationHigh = "utilization_high"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Finding is the transient output of one rule firing for one protocol. It is
// produced fresh every cycle and never persisted directly.
type Finding struct {
	ProtocolName string
	RuleID       string
	Severity     Severity
	Message      string
	Observed     decimal.Decimal
	Threshold    decimal.Decimal
}

// Evaluate runs every anomaly rule against the current sample. baseline24h is
// the sample from one lookback window ago; nil means the comparison is
// unavailable and the TVL rule does not fire. A malformed sample (negative
// TVL) short-circuits all rules for the cycle.
func Evaluate(p Protocol, current store.Sample, baseline24h *store.Sample, th Thresholds) []Finding {
	if current.TVL.IsNegative() {
		return nil
	}

	var findings []Finding

	if baseline24h != nil && baseline24h.TVL.IsPositive() {
		limit := decimal.NewFromFloat(th.TVLDrop)
		drop := baseline24h.TVL.Sub(current.TVL).Div(baseline24h.TVL)
		if drop.GreaterThan(limit) {
			findings = append(findings, Finding{
				ProtocolName: p.Name,
				RuleID:       RuleTVLDrop,
				Severity:     SeverityCritical,
				Message: fmt.Sprintf("TVL dropped %s%% in %.0fh: $%s → $%s",
					drop.Mul(decimal.NewFromInt(100)).StringFixed(1),
					th.TVLLookback.Hours(),
					formatNum(baseline24h.TVL.InexactFloat64()),
					formatNum(current.TVL.InexactFloat64())),
				Observed:  drop,
				Threshold: limit,
			})
		}
	}

	minAPY := decimal.NewFromFloat(th.APYMin)
	if current.APY.LessThan(minAPY) {
		findings = append(findings, Finding{
			ProtocolName: p.Name,
			RuleID:       RuleAPYLow,
			Severity:     SeverityWarning,
			Message: fmt.Sprintf("APY at %s%% (below %s%% threshold)",
				current.APY.StringFixed(2), minAPY.StringFixed(1)),
			Observed:  current.APY,
			Threshold: minAPY,
		})
	}

	if p.Kind == KindLending && current.Utilization.Valid {
		maxUtil := decimal.NewFromFloat(th.UtilizationMax)
		util := current.Utilization.Decimal
		if util.GreaterThan(maxUtil) {
			findings = append(findings, Finding{
				ProtocolName: p.Name,
				RuleID:       RuleUtilizationHigh,
				Severity:     SeverityWarning,
				Message: fmt.Sprintf("Utilization at %s%% (above %s%% threshold)",
					util.Mul(decimal.NewFromInt(100)).StringFixed(1),
					maxUtil.Mul(decimal.NewFromInt(100)).StringFixed(0)),
				Observed:  util,
				Threshold: maxUtil,
			})
		}
	}

	return findings
}
