package i18n

import (
	"encoding/json"
	"strings"
	"sync"
)

// Dictionary is the full set of translated strings for one locale. Every
// locale must fill every field, so a missing translation is a compile-time
// or review-time problem rather than a runtime one.
type Dictionary struct {
	Nav      NavStrings      `json:"nav"`
	Product  ProductStrings  `json:"product"`
	Cart     CartStrings     `json:"cart"`
	Checkout CheckoutStrings `json:"checkout"`
	Errors   ErrorStrings    `json:"errors"`
	Email    EmailStrings    `json:"email"`
	Common   CommonStrings   `json:"common"`
}

type NavStrings struct {
	Rooms string `json:"rooms"`
	Shop  string `json:"shop"`
	About string `json:"about"`
	Cart  string `json:"cart"`
}

type ProductStrings struct {
	AddToCart      string `json:"addToCart"`
	UnitPrice      string `json:"unitPrice"`
	Total          string `json:"total"`
	Savings        string `json:"savings"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
	Units          string `json:"units"`
	Stock          string `json:"stock"`
	OutOfStock     string `json:"outOfStock"`
	From           string `json:"from"`
	Materials      string `json:"materials"`
	Care           string `json:"care"`
	Dimensions     string `json:"dimensions"`
	Weight         string `json:"weight"`
	HeatSafe       string `json:"heatSafe"`
	ShippingNotes  string `json:"shippingNotes"`
	PackPricing    string `json:"packPricing"`
	YouSave        string `json:"youSave"`
	PerUnit        string `json:"perUnit"`
	ViewProduct    string `json:"viewProduct"`
	NotFound       string `json:"notFound"`
	InvalidQty     string `json:"invalidQuantity"`
	PricingProblem string `json:"pricingProblem"`
}

type CartStrings struct {
	Title     string `json:"title"`
	Empty     string `json:"empty"`
	Subtotal  string `json:"subtotal"`
	Total     string `json:"total"`
	Checkout  string `json:"checkout"`
	Remove    string `json:"remove"`
	Continue  string `json:"continueShopping"`
	ItemAdded string `json:"itemAdded"`
}

type CheckoutStrings struct {
	Title             string `json:"title"`
	Email             string `json:"email"`
	ShippingAddress   string `json:"shippingAddress"`
	PlaceOrder        string `json:"placeOrder"`
	Processing        string `json:"processing"`
	Success           string `json:"success"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	EmptyCart         string `json:"emptyCart"`
	Failed            string `json:"failed"`
}

type ErrorStrings struct {
	Retry        string `json:"retry"`
	InvalidInput string `json:"invalidInput"`
	RoomNotFound string `json:"roomNotFound"`
	Internal     string `json:"internal"`
}

type EmailStrings struct {
	OrderConfirmedSubject string `json:"orderConfirmedSubject"`
	OrderConfirmedIntro   string `json:"orderConfirmedIntro"`
	OrderTotal            string `json:"orderTotal"`
}

type CommonStrings struct {
	Loading string `json:"loading"`
	Close   string `json:"close"`
	Back    string `json:"back"`
}

var dictionaries = map[Locale]*Dictionary{
	ES: &spanish,
	EN: &english,
}

// For returns the dictionary of l, falling back to Default.
func For(l Locale) *Dictionary {
	if d, ok := dictionaries[l]; ok {
		return d
	}
	return dictionaries[Default]
}

var (
	flatOnce sync.Once
	flat     map[Locale]map[string]string
)

// Lookup resolves a dotted key such as "product.addToCart". Keys missing in
// l fall back to Default; keys missing everywhere are returned unchanged.
func Lookup(l Locale, key string) string {
	flatOnce.Do(buildFlat)
	if v, ok := flat[l][key]; ok {
		return v
	}
	if v, ok := flat[Default][key]; ok {
		return v
	}
	return key
}

func buildFlat() {
	flat = make(map[Locale]map[string]string, len(dictionaries))
	for l, d := range dictionaries {
		raw, err := json.Marshal(d)
		if err != nil {
			continue
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			continue
		}
		entries := make(map[string]string)
		flatten("", tree, entries)
		flat[l] = entries
	}
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch typed := v.(type) {
		case string:
			out[path] = typed
		case map[string]any:
			flatten(path, typed, out)
		}
	}
}

// UnitLabel picks the singular or plural unit word for qty.
func (d *Dictionary) UnitLabel(qty int) string {
	if qty == 1 {
		return d.Product.Unit
	}
	return d.Product.Units
}

// Format replaces {name} placeholders in s with the given values.
func Format(s string, values map[string]string) string {
	if len(values) == 0 {
		return s
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
