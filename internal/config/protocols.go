package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
)

// Range bounds a simulated metric in the protocols file.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SimConfig describes which metrics a protocol's fetcher simulates and
// within what bounds. A TVL range doubles as fallback when the aggregator
// is unreachable.
type SimConfig struct {
	APY         *Range `yaml:"apy"`
	Utilization *Range `yaml:"utilization"`
	TVL         *Range `yaml:"tvl"`
}

// ProtocolSpec is one entry of the protocols file.
type ProtocolSpec struct {
	Name          string    `yaml:"name"`
	Kind          string    `yaml:"kind"`
	DisplayName   string    `yaml:"display_name"`
	DefiLlamaSlug string    `yaml:"defillama_slug"`
	Sim           SimConfig `yaml:"sim"`
}

// Protocol converts the spec into the pipeline's protocol value.
func (s ProtocolSpec) Protocol() monitor.Protocol {
	kind, _ := monitor.ParseKind(s.Kind)
	name := s.DisplayName
	if name == "" {
		name = s.Name
	}
	return monitor.Protocol{Name: s.Name, Kind: kind, DisplayName: name}
}

type protocolsFile struct {
	Protocols []ProtocolSpec `yaml:"protocols"`
}

// LoadProtocols reads and validates the static protocol set.
func LoadProtocols(path string) ([]ProtocolSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocols file: %w", err)
	}

	var file protocolsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse protocols file: %w", err)
	}
	if len(file.Protocols) == 0 {
		return nil, fmt.Errorf("protocols file %s defines no protocols", path)
	}

	seen := make(map[string]bool, len(file.Protocols))
	for i, spec := range file.Protocols {
		if spec.Name == "" {
			return nil, fmt.Errorf("protocol %d: name is required", i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("protocol %q defined twice", spec.Name)
		}
		seen[spec.Name] = true

		kind, err := monitor.ParseKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("protocol %q: %w", spec.Name, err)
		}
		if spec.DefiLlamaSlug == "" && spec.Sim.TVL == nil {
			return nil, fmt.Errorf("protocol %q: needs a defillama_slug or a sim tvl range", spec.Name)
		}
		if spec.Sim.APY == nil {
			return nil, fmt.Errorf("protocol %q: sim apy range is required", spec.Name)
		}
		if kind == monitor.KindLending && spec.Sim.Utilization == nil {
			return nil, fmt.Errorf("protocol %q: lending protocols need a sim utilization range", spec.Name)
		}
		for metric, r := range map[string]*Range{"apy": spec.Sim.APY, "utilization": spec.Sim.Utilization, "tvl": spec.Sim.TVL} {
			if r != nil && r.Min > r.Max {
				return nil, fmt.Errorf("protocol %q: sim %s range min > max", spec.Name, metric)
			}
		}
	}
	return file.Protocols, nil
}
