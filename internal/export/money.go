// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jeranaias/storefront-tui/internal/api"
)

// MoneyFormatter renders amounts in minor units for one locale.
type MoneyFormatter struct {
	printer *message.Printer
	decimal string
}

// NewMoneyFormatter returns a formatter for tag.
func NewMoneyFormatter(tag language.Tag) *MoneyFormatter {
	p := message.NewPrinter(tag)
	return &MoneyFormatter{printer: p, decimal: decimalSeparator(p)}
}

// decimalSeparator extracts the locale's separator from a rendered 1.5.
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	_, first := utf8.DecodeRuneInString(s)
	_, last := utf8.DecodeLastRuneInString(s)
	if len(s) <= first+last {
		return "."
	}
	return s[first : len(s)-last]
}

// Format renders m with its currency symbol and locale digit grouping,
// e.g. {123450 USD} -> "$1,234.50". Unknown currencies fall back to two
// decimals and the raw code.
func (f *MoneyFormatter) Format(m api.Money) string {
	code := strings.ToUpper(m.Currency)
	scale := 2
	sym := ""
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
		sym = f.printer.Sprint(currency.Symbol(unit))
	} else if code != "" {
		sym = code
	}
	// Bare ISO codes read better separated from the digits.
	if sym == code && code != "" {
		sym += " "
	}

	neg, mag := magnitude(m.Amount)
	pow := pow10(scale)
	digits := f.printer.Sprint(number.Decimal(mag / pow))
	if scale > 0 {
		frac := strconv.FormatUint(mag%pow, 10)
		digits += f.decimal + strings.Repeat("0", scale-len(frac)) + frac
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return sign + sym + digits
}

// Plain renders m without symbol or grouping, for machine-readable output:
// {123450 USD} -> "1234.50".
func Plain(m api.Money) string {
	scale := 2
	if unit, err := currency.ParseISO(strings.ToUpper(m.Currency)); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	return fixedPoint(m.Amount, scale)
}

func fixedPoint(minor int64, scale int) string {
	neg, mag := magnitude(minor)
	s := strconv.FormatUint(mag, 10)
	if scale > 0 {
		for len(s) <= scale {
			s = "0" + s
		}
		s = s[:len(s)-scale] + "." + s[len(s)-scale:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// magnitude splits minor into its sign and absolute value. The uint64
// result holds -math.MinInt64, which int64 cannot.
func magnitude(minor int64) (bool, uint64) {
	if minor < 0 {
		return true, uint64(^minor) + 1
	}
	return false, uint64(minor)
}

func pow10(n int) uint64 {
	p := uint64(1)
	for ; n > 0; n-- {
		p *= 10
	}
	return p
}
