package cart

import "github.com/blessedux/CasaGreda/internal/pricing"

// Item is one cart line. Lines are identified by (ProductID, UnitPrice), so
// the same product bought at two tier prices occupies two lines.
type Item struct {
	ProductID string        `json:"productId"`
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	Image     string        `json:"image"`
	Quantity  int           `json:"quantity"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Total     pricing.Money `json:"total"`
}

// Candidate is a line proposed for insertion; its total is derived.
type Candidate struct {
	ProductID string
	Slug      string
	Title     string
	Image     string
	Quantity  int
	UnitPrice pricing.Money
}

// Cart is an immutable snapshot. Every operation in this file returns a new
// Cart and leaves its argument untouched.
type Cart struct {
	Items      []Item        `json:"items"`
	TotalItems int           `json:"totalItems"`
	TotalPrice pricing.Money `json:"totalPrice"`
}

// Empty returns the canonical empty cart.
func Empty() Cart {
	return Cart{Items: []Item{}}
}

// Clear discards every line.
func Clear() Cart { return Empty() }

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (i Item) matches(productID string, unitPrice pricing.Money) bool {
	return i.ProductID == productID && i.UnitPrice == unitPrice
}

// Totals recomputes the aggregate counters for items.
func Totals(items []Item) (int, pricing.Money) {
	var (
		count int
		sum   pricing.Money
	)
	for _, it := range items {
		count += it.Quantity
		sum += it.Total
	}
	return count, sum
}

func build(items []Item) Cart {
	count, sum := Totals(items)
	return Cart{Items: items, TotalItems: count, TotalPrice: sum}
}

func (c Cart) cloneItems(extra int) []Item {
	items := make([]Item, len(c.Items), len(c.Items)+extra)
	copy(items, c.Items)
	return items
}

// clampQuantity caps a line quantity at pricing.MaxQuantity.
func clampQuantity(q int) int {
	if q > pricing.MaxQuantity {
		return pricing.MaxQuantity
	}
	return q
}

// AddLine merges the candidate into a matching line or appends it. A
// candidate with a non-positive quantity or an out-of-range unit price
// leaves the cart unchanged. Merged quantities saturate at
// pricing.MaxQuantity.
func AddLine(c Cart, cand Candidate) Cart {
	if cand.Quantity <= 0 || cand.UnitPrice < 0 || cand.UnitPrice > pricing.MaxUnitPrice {
		return build(c.cloneItems(0))
	}
	qty := clampQuantity(cand.Quantity)
	items := c.cloneItems(1)
	for i := range items {
		if items[i].matches(cand.ProductID, cand.UnitPrice) {
			items[i].Quantity = clampQuantity(items[i].Quantity + qty)
			items[i].Total = items[i].UnitPrice * pricing.Money(items[i].Quantity)
			return build(items)
		}
	}
	items = append(items, Item{
		ProductID: cand.ProductID,
		Slug:      cand.Slug,
		Title:     cand.Title,
		Image:     cand.Image,
		Quantity:  qty,
		UnitPrice: cand.UnitPrice,
		Total:     cand.UnitPrice * pricing.Money(qty),
	})
	return build(items)
}

// RemoveLine drops every line matching the key. Missing lines are a no-op.
func RemoveLine(c Cart, productID string, unitPrice pricing.Money) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.matches(productID, unitPrice) {
			continue
		}
		items = append(items, it)
	}
	return build(items)
}

// SetLineQuantity replaces the quantity of a matching line. A quantity of
// zero or less removes the line, larger ones saturate at
// pricing.MaxQuantity, and a missing line is never created.
func SetLineQuantity(c Cart, productID string, unitPrice pricing.Money, quantity int) Cart {
	if quantity <= 0 {
		return RemoveLine(c, productID, unitPrice)
	}
	quantity = clampQuantity(quantity)
	items := c.cloneItems(0)
	for i := range items {
		if items[i].matches(productID, unitPrice) {
			items[i].Quantity = quantity
			items[i].Total = items[i].UnitPrice * pricing.Money(quantity)
		}
	}
	return build(items)
}

// Valid reports whether the cart satisfies its aggregate invariants.
func (c Cart) Valid() bool {
	if c.Items == nil {
		return false
	}
	for _, it := range c.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Quantity > pricing.MaxQuantity {
			return false
		}
		if it.UnitPrice < 0 || it.UnitPrice > pricing.MaxUnitPrice || it.Total < 0 {
			return false
		}
		if it.Total != it.UnitPrice*pricing.Money(it.Quantity) {
			return false
		}
	}
	count, sum := Totals(c.Items)
	return count == c.TotalItems && sum == c.TotalPrice
}
