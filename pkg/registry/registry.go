package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// DefaultSubsidyRegistry returns the built-in central and state subsidy tiers.
func DefaultSubsidyRegistry() *SubsidyRegistry {
	return &SubsidyRegistry{
		Central: CentralScheme{
			Residential: ResidentialTiers{
				UpTo3KW:  Tier{Percentage: 40, MaxAmount: 30000},
				Above3KW: Tier{Percentage: 40, MaxAmount: 40000},
			},
			Commercial: Tier{Percentage: 0},
		},
		State: map[string]Tier{
			"Maharashtra": {Percentage: 20, MaxAmount: 20000},
			"Gujarat":     {Percentage: 25, MaxAmount: 25000},
			"Rajasthan":   {Percentage: 15, MaxAmount: 15000},
		},
	}
}

func DefaultIrradiationRegistry() *IrradiationRegistry {
	return &IrradiationRegistry{
		Default: 5.0,
		States: map[string]float64{
			"Maharashtra": 5.5,
			"Gujarat":     5.8,
			"Rajasthan":   6.0,
			"Karnataka":   5.2,
			"Tamil Nadu":  5.0,
		},
	}
}

// LoadSubsidyRegistry reads tiers from path. An empty path or a missing file yields the defaults.
func LoadSubsidyRegistry(path string) (*SubsidyRegistry, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return DefaultSubsidyRegistry(), err
	}

	var reg SubsidyRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse subsidy registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("subsidy registry %s: %w", path, err)
	}
	return &reg, nil
}

func LoadIrradiationRegistry(path string) (*IrradiationRegistry, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return DefaultIrradiationRegistry(), err
	}

	var reg IrradiationRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse irradiation registry %s: %w", path, err)
	}
	if reg.Default <= 0 {
		reg.Default = 5.0
	}
	return &reg, nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Validate rejects negative values and percentages above 100.
func (r *SubsidyRegistry) Validate() error {
	check := func(name string, t Tier) error {
		if t.Percentage < 0 || t.Percentage > 100 {
			return fmt.Errorf("%s: percentage %.2f out of range", name, t.Percentage)
		}
		if t.MaxAmount < 0 {
			return fmt.Errorf("%s: max_amount must not be negative", name)
		}
		return nil
	}

	if err := check("central.residential.upto_3kw", r.Central.Residential.UpTo3KW); err != nil {
		return err
	}
	if err := check("central.residential.above_3kw", r.Central.Residential.Above3KW); err != nil {
		return err
	}
	if err := check("central.commercial", r.Central.Commercial); err != nil {
		return err
	}
	for _, state := range r.States() {
		if err := check("state."+state, r.State[state]); err != nil {
			return err
		}
	}
	return nil
}

// StateTier looks up the top-up tier for a state.
func (r *SubsidyRegistry) StateTier(state string) (Tier, bool) {
	t, ok := r.State[state]
	return t, ok
}

// UpsertState adds or replaces a state tier.
func (r *SubsidyRegistry) UpsertState(state string, tier Tier) {
	if r.State == nil {
		r.State = make(map[string]Tier)
	}
	r.State[state] = tier
}

// States returns configured state names in sorted order.
func (r *SubsidyRegistry) States() []string {
	out := make([]string, 0, len(r.State))
	for s := range r.State {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Save writes the registry as indented JSON.
func (r *SubsidyRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// For returns the irradiation for a state, falling back to the default.
func (r *IrradiationRegistry) For(state string) float64 {
	if v, ok := r.States[state]; ok {
		return v
	}
	return r.Default
}
