package domain

// PricingConfig maps tiers to their listed price. Admins edit it at runtime;
// a sale records the price observed at claim time, so later edits never
// rewrite sold records.
type PricingConfig map[Tier]float64

// DefaultPricing backs any tier the stored config omits. BLACK is 0 because
// it is auction/contact-only, not free.
var DefaultPricing = PricingConfig{
	TierBlack:    0,
	TierVVIP:     1000,
	TierDiamond:  500,
	TierGold:     100,
	TierSilver:   30,
	TierStandard: 0,
}

// Price resolves the current price for a tier, falling back to the default
// table per tier when cfg is nil or omits the entry.
func Price(tier Tier, cfg PricingConfig) float64 {
	if cfg != nil {
		if p, ok := cfg[tier]; ok {
			return p
		}
	}
	return DefaultPricing[tier]
}

// Validate rejects configs with negative prices or unknown tier names.
func (c PricingConfig) Validate() error {
	for tier, price := range c {
		if _, ok := ParseTier(string(tier)); !ok {
			return ErrUnknownTier
		}
		if price < 0 {
			return ErrNegativePrice
		}
	}
	return nil
}
