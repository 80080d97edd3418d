package domain

// Plan describes one paid subscription plan.
type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	PriceUSD float64 `json:"priceUsd"`
	Interval string  `json:"interval"` // month or year
	Popular  bool    `json:"popular"`
}

// AvailablePlans returns the paid plan catalog.
func AvailablePlans() []Plan {
	return []Plan{
		{
			ID:       PlanPremiumMonthly,
			Name:     "Premium Monthly",
			PriceUSD: 19.99,
			Interval: "month",
			Popular:  false,
		},
		{
			ID:       PlanPremiumYearly,
			Name:     "Premium Yearly",
			PriceUSD: 199,
			Interval: "year",
			Popular:  true,
		},
	}
}
