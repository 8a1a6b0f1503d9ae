package pricing

import (
	"errors"
	"fmt"
	"sort"
)

// Money represents a monetary value in whole Chilean pesos.
type Money = int64

// ErrInvalidInput is returned when a tier list or quantity cannot be priced.
var ErrInvalidInput = errors.New("invalid input")

const (
	// MaxQuantity is the largest quantity a single line or quote may carry.
	MaxQuantity = 999
	// MaxUnitPrice bounds tier prices so MaxQuantity units never overflow
	// Money, even summed over many cart lines.
	MaxUnitPrice Money = 1_000_000_000_000
)

// PriceTier is one row of a product's quantity price table.
type PriceTier struct {
	Qty       int   `json:"qty" yaml:"qty"`
	UnitPrice Money `json:"unitPrice" yaml:"unitPrice"`
}

// Calculation is the resolved price for a requested quantity.
type Calculation struct {
	Unit    Money     `json:"unit"`
	Total   Money     `json:"total"`
	Savings *Money    `json:"savings,omitempty"`
	Tier    PriceTier `json:"tier"`
}

// SortedTiers returns a validated copy of tiers ordered by ascending Qty.
func SortedTiers(tiers []PriceTier) ([]PriceTier, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("empty price tiers: %w", ErrInvalidInput)
	}
	sorted := make([]PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Qty < sorted[j].Qty })
	for i, tier := range sorted {
		if tier.Qty < 1 {
			return nil, fmt.Errorf("tier qty %d must be positive: %w", tier.Qty, ErrInvalidInput)
		}
		if tier.UnitPrice < 0 || tier.UnitPrice > MaxUnitPrice {
			return nil, fmt.Errorf("tier %d price %d out of range: %w", tier.Qty, tier.UnitPrice, ErrInvalidInput)
		}
		if i > 0 && sorted[i-1].Qty == tier.Qty {
			return nil, fmt.Errorf("duplicate tier qty %d: %w", tier.Qty, ErrInvalidInput)
		}
	}
	return sorted, nil
}

// ResolveTierPrice picks the tier with the largest Qty not exceeding qty,
// falling back to the smallest tier. Savings are measured against the
// smallest tier's unit price and are only reported when qty > 1.
func ResolveTierPrice(tiers []PriceTier, qty int) (Calculation, error) {
	if qty < 1 || qty > MaxQuantity {
		return Calculation{}, fmt.Errorf("qty %d outside 1..%d: %w", qty, MaxQuantity, ErrInvalidInput)
	}
	sorted, err := SortedTiers(tiers)
	if err != nil {
		return Calculation{}, err
	}

	tier := sorted[0]
	for _, candidate := range sorted {
		if candidate.Qty > qty {
			break
		}
		tier = candidate
	}

	calc := Calculation{
		Unit:  tier.UnitPrice,
		Total: tier.UnitPrice * Money(qty),
		Tier:  tier,
	}
	if qty > 1 {
		savings := sorted[0].UnitPrice*Money(qty) - calc.Total
		calc.Savings = &savings
	}
	return calc, nil
}

// PackSavings returns the savings for qty, or zero when none apply.
func PackSavings(tiers []PriceTier, qty int) (Money, error) {
	calc, err := ResolveTierPrice(tiers, qty)
	if err != nil {
		return 0, err
	}
	if calc.Savings == nil {
		return 0, nil
	}
	return *calc.Savings, nil
}

// AvailableQuantities lists the tier quantities that stock can cover, ascending.
func AvailableQuantities(tiers []PriceTier, stock int) []int {
	sorted, err := SortedTiers(tiers)
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(sorted))
	for _, tier := range sorted {
		if tier.Qty <= stock {
			out = append(out, tier.Qty)
		}
	}
	return out
}

// FromPrice is the lowest unit price offered by any tier.
func FromPrice(tiers []PriceTier) (Money, error) {
	sorted, err := SortedTiers(tiers)
	if err != nil {
		return 0, err
	}
	lowest := sorted[0].UnitPrice
	for _, tier := range sorted[1:] {
		if tier.UnitPrice < lowest {
			lowest = tier.UnitPrice
		}
	}
	return lowest, nil
}
