package models

import (
	"fmt"
	"strings"
	"unicode"
)

// Phone is a validated Brazilian-style mobile number split into its
// country/area/subscriber parts, as required by the Pagar.me customer payload.
type Phone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

// ParsePhone normalizes a raw phone string ("+55 22 99789-3098",
// "5522997893098", "22997893098") into its parts. Inputs that cannot be
// split unambiguously are rejected instead of being sliced at a fixed offset.
func ParsePhone(raw string) (Phone, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) >= 12 && len(digits) <= 13:
		// country + area + subscriber
		p := Phone{
			CountryCode: digits[:2],
			AreaCode:    digits[2:4],
			Number:      digits[4:],
		}
		return p, p.validate()
	case len(digits) >= 10 && len(digits) <= 11:
		// area + subscriber, assume Brazil
		p := Phone{
			CountryCode: "55",
			AreaCode:    digits[:2],
			Number:      digits[2:],
		}
		return p, p.validate()
	default:
		return Phone{}, fmt.Errorf("phone number %q has %d digits, want 10-13", raw, len(digits))
	}
}

func (p Phone) validate() error {
	if len(p.Number) < 8 || len(p.Number) > 9 {
		return fmt.Errorf("subscriber number %q has %d digits, want 8-9", p.Number, len(p.Number))
	}
	return nil
}

// E164 renders the number as +<country><area><subscriber>.
func (p Phone) E164() string {
	return "+" + p.CountryCode + p.AreaCode + p.Number
}
