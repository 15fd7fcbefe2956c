package monitor

import (
	"fmt"
	"time"
)

// Kind tags a protocol with the rule set that applies to it. The set is
// closed: lending protocols have a utilization rate, vaults do not.
type Kind string

const (
	KindLending Kind = "lending"
	KindVault   Kind = "vault"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLending, KindVault:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown protocol kind %q", s)
	}
}

// Protocol is a statically configured monitoring target. The pipeline never
// creates or mutates protocols at runtime.
type Protocol struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"display_name"`
}

// Thresholds holds the anomaly rule limits for one cycle. A copy is passed
// into evaluation at cycle start so a running cycle never observes a change.
type Thresholds struct {
	TVLDrop        float64
	APYMin         float64
	UtilizationMax float64
	TVLLookback    time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TVLDrop:        0.20,
		APYMin:         2.0,
		UtilizationMax: 0.95,
		TVLLookback:    24 * time.Hour,
	}
}
