package config

// riskParams are the optimizer axis names that map onto the risk section;
// any other axis name is treated as a strategy parameter.
var riskParams = map[string]func(*RiskConfig, float64){
	"risk_per_trade":    func(r *RiskConfig, v float64) { r.RiskPerTrade = v },
	"stop_distance":     func(r *RiskConfig, v float64) { r.StopDistance = v },
	"target_distance":   func(r *RiskConfig, v float64) { r.TargetDistance = v },
	"atr_multiple":      func(r *RiskConfig, v float64) { r.ATRMultiple = v },
	"target_multiple":   func(r *RiskConfig, v float64) { r.TargetMultiple = v },
	"trailing_multiple": func(r *RiskConfig, v float64) { r.TrailingMultiple = v },
	"max_position_size": func(r *RiskConfig, v float64) { r.MaxPositionSize = v },
}

// WithParams returns a copy of the configuration with one grid cell's
// values applied: recognized risk parameters override the risk section,
// everything else overrides or extends the strategy parameters. The
// receiver is never mutated.
func (c *Config) WithParams(values map[string]float64) *Config {
	out := *c

	out.Strategy.Params = make(map[string]float64, len(c.Strategy.Params)+len(values))
	for k, v := range c.Strategy.Params {
		out.Strategy.Params[k] = v
	}

	for k, v := range values {
		if set, ok := riskParams[k]; ok {
			set(&out.Risk, v)
			continue
		}
		out.Strategy.Params[k] = v
	}
	return &out
}
