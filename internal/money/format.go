// Package money formats decimal amounts for display in the active locale.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency used for every amount in the dashboard
var Currency = currency.CNY

// Format renders amount as a currency string such as "¥1,280.00"
func Format(tag language.Tag, amount decimal.Decimal) string {
	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.NarrowSymbol(Currency))

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	value := amount.Round(2).InexactFloat64()
	return sign + symbol + p.Sprint(number.Decimal(value, number.Scale(2)))
}

// Formatter binds Format to a locale
type Formatter struct {
	tag language.Tag
}

func NewFormatter(tag language.Tag) Formatter {
	return Formatter{tag: tag}
}

func (f Formatter) Format(amount decimal.Decimal) string {
	return Format(f.tag, amount)
}
