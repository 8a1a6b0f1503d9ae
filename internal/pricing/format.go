package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"

	"github.com/blessedux/CasaGreda/internal/i18n"
)

// CLPPerUSD is the fixed display conversion rate used for English prices.
// It is presentation only; carts and orders always hold CLP.
const CLPPerUSD = 800

var printers = map[i18n.Locale]*message.Printer{
	i18n.ES: message.NewPrinter(i18n.ES.Tag()),
	i18n.EN: message.NewPrinter(i18n.EN.Tag()),
}

// ToUSD converts a CLP amount to whole US dollars, rounding half away from zero.
func ToUSD(amount Money) int64 {
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(CLPPerUSD)).
		Round(0).
		IntPart()
}

// FormatDisplayPrice renders amount for locale without decimals: CLP with
// es-CL grouping for es ("$15.000"), converted USD for en ("$19").
func FormatDisplayPrice(amount Money, locale i18n.Locale) string {
	locale = locale.OrDefault()
	value := amount
	if locale == i18n.EN {
		value = ToUSD(amount)
	}
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + "$" + printers[locale].Sprintf("%d", value)
}
