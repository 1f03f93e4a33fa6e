package core

import "strings"

// Currency describes a display currency. Amounts are never converted.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Currencies lists the supported display currencies.
var Currencies = []Currency{
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹"},
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "GBP", Name: "British Pound", Symbol: "£"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
}

// LookupCurrency finds a supported currency by code, ignoring case.
func LookupCurrency(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Format renders m with the currency symbol, e.g. ₹1250.00.
func (c Currency) Format(m Money) string {
	if m.Cents < 0 {
		return "-" + c.Symbol + Money{Cents: -m.Cents}.String()
	}
	return c.Symbol + m.String()
}
