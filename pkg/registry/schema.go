package registry

// Tier is a percentage-of-cost subsidy capped at MaxAmount. Cost is taken as 1000 per kW.
type Tier struct {
	Percentage float64 `json:"percentage"`
	MaxAmount  float64 `json:"max_amount"`
}

// ResidentialTiers splits the central residential scheme at 3 kW.
type ResidentialTiers struct {
	UpTo3KW  Tier `json:"upto_3kw"`
	Above3KW Tier `json:"above_3kw"`
}

type CentralScheme struct {
	Residential ResidentialTiers `json:"residential"`
	Commercial  Tier             `json:"commercial"`
}

// SubsidyRegistry is the central scheme plus per-state top-ups keyed by state name.
type SubsidyRegistry struct {
	Central CentralScheme   `json:"central"`
	State   map[string]Tier `json:"state"`
}

// IrradiationRegistry holds average daily irradiation in kWh per kW per day.
type IrradiationRegistry struct {
	Default float64            `json:"default"`
	States  map[string]float64 `json:"states"`
}
