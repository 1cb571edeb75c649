// Package finance computes marketplace fees and profit for a listing.
//
// All amounts are whole yen. The marketplace keeps a flat 10% of the sale
// price, rounded down; the seller also pays shipping.
package finance

import (
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

// CommissionPercent is the marketplace's cut of the sale price.
const CommissionPercent = 10

// Health classifies a profit figure.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthAtRisk  Health = "at_risk"
)

// Breakdown is the fee and profit split for one sale.
type Breakdown struct {
	Price      int64  `json:"price"`
	Shipping   int64  `json:"shipping"`
	Commission int64  `json:"commission"`
	Profit     int64  `json:"profit"`
	Health     Health `json:"health"`
}

// Commission returns floor(price * 10%) for non-negative prices. The price
// is split into hundreds and remainder so the product never overflows.
func Commission(price int64) int64 {
	return price/100*CommissionPercent + price%100*CommissionPercent/100
}

// Profit returns price minus commission and shipping. It may be negative.
func Profit(price, shipping int64) int64 {
	return price - Commission(price) - shipping
}

// Classify returns HealthAtRisk for zero or negative profit.
func Classify(profit int64) Health {
	if profit <= 0 {
		return HealthAtRisk
	}
	return HealthHealthy
}

// Compute returns the full breakdown for price and shipping.
func Compute(price, shipping int64) Breakdown {
	commission := Commission(price)
	profit := price - commission - shipping
	return Breakdown{
		Price:      price,
		Shipping:   shipping,
		Commission: commission,
		Profit:     profit,
		Health:     Classify(profit),
	}
}

// Of returns the breakdown for an item.
func Of(item model.Item) Breakdown {
	return Compute(item.Price, item.Shipping)
}

// AtRisk reports whether the sale makes no money.
func (b Breakdown) AtRisk() bool {
	return b.Health == HealthAtRisk
}

// Summary aggregates a user's items.
type Summary struct {
	Stages          map[lifecycle.Stage]int `json:"stages"`
	Active          int                     `json:"active"`
	Completed       int                     `json:"completed"`
	ListedValue     int64                   `json:"listed_value"`
	ProjectedProfit int64                   `json:"projected_profit"`
	RealisedProfit  int64                   `json:"realised_profit"`
	Commission      int64                   `json:"commission"`
	AtRisk          int                     `json:"at_risk"`
}

// Summarize totals items by stage. Active items contribute to listed value
// and projected profit, completed items to realised profit. Commission is
// summed over all items.
func Summarize(items []model.Item) Summary {
	s := Summary{Stages: make(map[lifecycle.Stage]int, len(lifecycle.All()))}
	for _, st := range lifecycle.All() {
		s.Stages[st] = 0
	}

	for _, item := range items {
		b := Of(item)
		s.Stages[item.Status]++
		s.Commission += b.Commission
		if b.AtRisk() {
			s.AtRisk++
		}

		if item.Completed() {
			s.Completed++
			s.RealisedProfit += b.Profit
		} else {
			s.Active++
			s.ListedValue += b.Price
			s.ProjectedProfit += b.Profit
		}
	}
	return s
}
