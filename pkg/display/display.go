// Package display renders decoded values for people: localized amounts, currency
// symbols and grouped recipient keys.
package display

import (
	"regexp"

	"github.com/gregLibert/emv-qr/pkg/emv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const currencyUSD = "840"

var (
	localeUS = language.MustParse("en-US")
	localeCO = language.MustParse("es-CO")
)

// Locale returns the number formatting locale for a numeric currency code:
// en-US for US dollars, es-CO for everything else.
func Locale(currency string) language.Tag {
	if currency == currencyUSD {
		return localeUS
	}
	return localeCO
}

// FormatAmount groups the amount per the currency's locale with 0 to 2 fraction digits.
func FormatAmount(amount decimal.Decimal, currency string) string {
	f, _ := amount.Round(2).Float64()
	p := message.NewPrinter(Locale(currency))
	return p.Sprint(number.Decimal(f, number.MinFractionDigits(0), number.MaxFractionDigits(2)))
}

// CurrencySymbol returns the symbol for a numeric currency code, "$" when unknown.
func CurrencySymbol(currency string) string {
	if c, ok := emv.LookupCurrency(currency); ok {
		return c.Symbol
	}
	return "$"
}

// CurrencyCode returns the alphabetic code for a numeric currency code, or the input
// itself when unknown.
func CurrencyCode(currency string) string {
	if c, ok := emv.LookupCurrency(currency); ok {
		return c.Code
	}
	return currency
}

// Amount renders the amount and currency of a decoded QR ("$ 150.000,5 COP").
// It returns an empty string when the QR carries no amount.
func Amount(qr *emv.ParsedQR) string {
	if qr.Amount == nil {
		return ""
	}
	currency := ""
	if qr.Currency != nil {
		currency = *qr.Currency
	}
	out := CurrencySymbol(currency) + " " + FormatAmount(*qr.Amount, currency)
	if code := CurrencyCode(currency); code != "" {
		out += " " + code
	}
	return out
}

var tenDigits = regexp.MustCompile(`^(\d{3})(\d{3})(\d{4})$`)

// FormatKey groups a 10 digit key (a Colombian mobile number) as "300 123 4567".
// Aliases and any other value are returned unchanged.
func FormatKey(key string) string {
	return tenDigits.ReplaceAllString(key, "$1 $2 $3")
}
