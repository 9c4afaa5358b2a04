// Package core holds the domain types and the message parser.
//
// This file turns a raw message line like "1500 продукты" into a
// (amount, category text) pair. The amount is the leading run of decimal
// digits, the category text is whatever follows, trimmed.
package core

import (
	"strconv"
	"strings"
)

// ParseEntry parses a free-text expense line.
//
// The line is trimmed, then a leading run of decimal digits is read as the
// amount in whole rubles. The remainder, trimmed, becomes the category
// text; an empty remainder is allowed and resolves to the fallback
// category later. Returns ErrInvalidFormat when the line does not start
// with a digit and ErrInvalidAmount when the digits do not make a
// strictly positive integer.
//
// Examples:
//
//	ParseEntry("1500 продукты") -> {1500, "продукты"}, nil
//	ParseEntry("300")           -> {300, ""}, nil
//	ParseEntry("такси 300")     -> ErrInvalidFormat
//	ParseEntry("0 кофе")        -> ErrInvalidAmount
func ParseEntry(text string) (ParsedEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedEntry{}, ErrInvalidFormat
	}

	digits := 0
	for digits < len(text) && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return ParsedEntry{}, ErrInvalidFormat
	}

	amount, err := strconv.ParseInt(text[:digits], 10, 64)
	if err != nil {
		// Overflow of the digit run.
		return ParsedEntry{}, ErrInvalidAmount
	}
	if amount <= 0 {
		return ParsedEntry{}, ErrInvalidAmount
	}

	return ParsedEntry{
		Amount:       amount,
		CategoryText: strings.TrimSpace(text[digits:]),
	}, nil
}
