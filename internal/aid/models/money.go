package models

import (
	"bytes"
	"strconv"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// Cents is an amount in bolivianos held as integer cents. It is written to
// JSON as a decimal number with two places.
type Cents int64

// ParseCents reads a non-negative decimal amount with at most two decimals.
// A comma is accepted as the decimal separator.
func ParseCents(s string) (Cents, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(whole) || (hasFrac && !allDigits(frac)) {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid amount: "+s)
	}
	if len(frac) > 2 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must have at most two decimals: "+s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > 1<<40 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid amount: "+s)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	return Cents(units*100 + cents), nil
}

// allDigits reports whether s is a non-empty run of ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + strconv.FormatInt(v/100, 10) + "." + leftPad2(v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	v, err := ParseCents(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
