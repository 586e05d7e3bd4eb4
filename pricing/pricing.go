// Package pricing turns a design into an itemized quote.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/design"
)

// Rates is one complete rate table. Linear rates are per foot, box rates
// per unit, all in whole currency units.
type Rates struct {
	HydrobloxPerLF float64 `toml:"hydroblox_per_lf" json:"hydroblox"`
	ParallelPerLF  float64 `toml:"parallel_per_lf" json:"parallel"`
	TransitionBox  float64 `toml:"transition_box" json:"transitionBox"`
	StormwaterBox  float64 `toml:"stormwater_box" json:"stormwaterBox"`
}

// Promo is a discounted rate table valid in [Starts, Ends). A zero Starts
// leaves the window open at the front; a zero Ends disables the promo.
type Promo struct {
	Rates  Rates
	Starts time.Time
	Ends   time.Time
}

// Policy selects between regular and promotional rates.
type Policy struct {
	Regular Rates
	Promo   *Promo
}

func DefaultRegularRates() Rates {
	return Rates{HydrobloxPerLF: 45, ParallelPerLF: 35, TransitionBox: 400, StormwaterBox: 750}
}

func DefaultPromoRates() Rates {
	return Rates{HydrobloxPerLF: 40, ParallelPerLF: 30, TransitionBox: 350, StormwaterBox: 650}
}

// DefaultPromoEnds closes the Q1 2026 promotion.
var DefaultPromoEnds = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

func DefaultPolicy() Policy {
	return Policy{
		Regular: DefaultRegularRates(),
		Promo:   &Promo{Rates: DefaultPromoRates(), Ends: DefaultPromoEnds},
	}
}

// PromoActive reports whether now falls in the promo window. The cutoff is
// exclusive.
func (p Policy) PromoActive(now time.Time) bool {
	if p.Promo == nil || p.Promo.Ends.IsZero() {
		return false
	}
	if !p.Promo.Starts.IsZero() && now.Before(p.Promo.Starts) {
		return false
	}
	return now.Before(p.Promo.Ends)
}

// RatesAt returns the rate table in force at now.
func (p Policy) RatesAt(now time.Time) (Rates, bool) {
	if p.PromoActive(now) {
		return p.Promo.Rates, true
	}
	return p.Regular, false
}

// DefaultUnitPrices is the flat price stamped on click-to-place boxes.
func DefaultUnitPrices() map[design.ElementType]float64 {
	return map[design.ElementType]float64{
		design.TransitionBox: 400,
		design.StormwaterBox: 750,
	}
}

// Quantities are the priced amounts in a design.
type Quantities struct {
	HydrobloxLF     float64
	ParallelLF      float64
	TransitionCount int
	StormwaterCount int
}

// Aggregate totals run lengths and box counts. Element types that are not
// priced by quantity contribute nothing; non-finite or negative lengths are
// ignored.
func Aggregate(features []design.Feature) Quantities {
	var q Quantities
	for _, f := range features {
		switch f.Type {
		case design.HydrobloxRun:
			q.HydrobloxLF += usableLength(f.LengthFt)
		case design.ParallelRow:
			q.ParallelLF += usableLength(f.LengthFt)
		case design.TransitionBox:
			q.TransitionCount++
		case design.StormwaterBox:
			q.StormwaterCount++
		case design.FlowArrow, design.StandingWater, design.ProblemArea,
			design.ExistingSwale, design.ExistingFrenchDrain, design.ExistingPipe, design.Downspout:
			// markers and existing infrastructure are not billed
		}
	}
	return q
}

func usableLength(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Summary is an itemized quote.
type Summary struct {
	HydrobloxLF     float64 `json:"hydrobloxLF"`
	ParallelLF      float64 `json:"parallelLF"`
	TransitionCount int     `json:"transitionCount"`
	StormwaterCount int     `json:"stormwaterCount"`

	HydrobloxCost  int64 `json:"hydrobloxCost"`
	ParallelCost   int64 `json:"parallelCost"`
	TransitionCost int64 `json:"transitionCost"`
	StormwaterCost int64 `json:"stormwaterCost"`

	Subtotal     int64 `json:"subtotal"`
	Total        int64 `json:"total"`
	RegularTotal int64 `json:"regularTotal"`

	IsPromo   bool      `json:"isPromo"`
	Savings   int64     `json:"savings"`
	PromoEnds time.Time `json:"promoEnds,omitzero"`

	Rates Rates `json:"rates"`
}

// HasItems reports whether anything in the quote is billable.
func (s Summary) HasItems() bool {
	return s.HydrobloxLF > 0 || s.ParallelLF > 0 || s.TransitionCount > 0 || s.StormwaterCount > 0
}

type costs struct {
	hydroblox, parallel, transition, stormwater int64
}

func (c costs) total() int64 {
	return c.hydroblox + c.parallel + c.transition + c.stormwater
}

func price(q Quantities, r Rates) costs {
	return costs{
		hydroblox:  money(q.HydrobloxLF * r.HydrobloxPerLF),
		parallel:   money(q.ParallelLF * r.ParallelPerLF),
		transition: money(float64(q.TransitionCount) * r.TransitionBox),
		stormwater: money(float64(q.StormwaterCount) * r.StormwaterBox),
	}
}

// money rounds to the nearest whole currency unit.
func money(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}

// Calculate prices features under policy at the instant now.
func Calculate(features []design.Feature, policy Policy, now time.Time) Summary {
	q := Aggregate(features)
	rates, promo := policy.RatesAt(now)
	c := price(q, rates)
	regular := price(q, policy.Regular).total()

	s := Summary{
		HydrobloxLF:     q.HydrobloxLF,
		ParallelLF:      q.ParallelLF,
		TransitionCount: q.TransitionCount,
		StormwaterCount: q.StormwaterCount,
		HydrobloxCost:   c.hydroblox,
		ParallelCost:    c.parallel,
		TransitionCost:  c.transition,
		StormwaterCost:  c.stormwater,
		Subtotal:        c.total(),
		Total:           c.total(),
		RegularTotal:    regular,
		IsPromo:         promo,
		Rates:           rates,
	}
	if promo {
		s.PromoEnds = policy.Promo.Ends
		if saved := regular - s.Total; saved > 0 {
			s.Savings = saved
		}
	}
	return s
}

// LineItem is one row of a rendered breakdown.
type LineItem struct {
	Name     string
	Quantity float64
	Unit     string
	Rate     float64
	Cost     int64
}

// Detail renders the "quantity × rate" text for a row.
func (l LineItem) Detail() string {
	if l.Unit == "LF" {
		return fmt.Sprintf("%s LF × $%s", formatQty(l.Quantity), formatQty(l.Rate))
	}
	return fmt.Sprintf("%s × $%s", formatQty(l.Quantity), formatQty(l.Rate))
}

func formatQty(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatMoney renders whole currency units as "$12,345".
func FormatMoney(v int64) string {
	if v < 0 {
		return "-$" + humanize.Comma(-v)
	}
	return "$" + humanize.Comma(v)
}

// Lines returns the four billable rows in display order.
func (s Summary) Lines() []LineItem {
	return []LineItem{
		{Name: design.HydrobloxRun.Title(), Quantity: s.HydrobloxLF, Unit: "LF", Rate: s.Rates.HydrobloxPerLF, Cost: s.HydrobloxCost},
		{Name: design.ParallelRow.Title(), Quantity: s.ParallelLF, Unit: "LF", Rate: s.Rates.ParallelPerLF, Cost: s.ParallelCost},
		{Name: design.TransitionBox.Title(), Quantity: float64(s.TransitionCount), Unit: "ea", Rate: s.Rates.TransitionBox, Cost: s.TransitionCost},
		{Name: design.StormwaterBox.Title(), Quantity: float64(s.StormwaterCount), Unit: "ea", Rate: s.Rates.StormwaterBox, Cost: s.StormwaterCost},
	}
}

// Quoter prices designs against the current time.
type Quoter struct {
	policy Policy
	clock  clock.Clock
}

func NewQuoter(policy Policy, clk clock.Clock) *Quoter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Quoter{policy: policy, clock: clk}
}

func (q *Quoter) Policy() Policy { return q.policy }

func (q *Quoter) Quote(features []design.Feature) Summary {
	return Calculate(features, q.policy, q.clock.Now())
}
