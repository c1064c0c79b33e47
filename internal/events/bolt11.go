package events

import (
	"regexp"
	"strconv"
	"strings"
)

// bolt11AmountRe matches the human-readable amount prefix of a BOLT11
// invoice: "lnbc" followed by digits and an optional multiplier letter.
var bolt11AmountRe = regexp.MustCompile(`(?i)lnbc(\d+)([munp]?)`)

// InvoiceAmountSats extracts the amount, in whole satoshis, embedded in a
// BOLT11 invoice string. The multiplier letter scales the amount in
// fractions of a bitcoin (m=milli, u=micro, n=nano, p=pico); no letter
// means whole bitcoin. Fractional satoshi amounts truncate toward zero.
// Unparseable or absent invoices yield zero.
func InvoiceAmountSats(invoice string) int64 {
	match := bolt11AmountRe.FindStringSubmatch(invoice)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(match[2]) {
	case "m":
		return value * 100_000
	case "u":
		return value * 100
	case "n":
		return value / 10
	case "p":
		return value / 10_000
	default:
		return value * 100_000_000
	}
}
