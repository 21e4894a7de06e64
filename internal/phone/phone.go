// Package phone canonicalizes Kenyan mobile numbers into the
// international 254XXXXXXXXX form the payment gateway requires.
package phone

import (
	"regexp"
	"strings"

	"github.com/vict-okello/coffee-shop/internal/domain"
)

var (
	localForm    = regexp.MustCompile(`^0[17]\d{8}$`)
	bareForm     = regexp.MustCompile(`^[17]\d{8}$`)
	intlForm     = regexp.MustCompile(`^254[17]\d{8}$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize accepts 07XXXXXXXX, 7XXXXXXXX, 2547XXXXXXXX or
// +2547XXXXXXXX (and the 01/2541 Safaricom ranges) and returns the
// canonical 254-prefixed form. It is idempotent: a canonical input is
// returned unchanged. Anything else fails with domain.ErrInvalidPhone.
func Normalize(raw string) (string, error) {
	p := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), "")
	p = strings.TrimPrefix(p, "+")

	switch {
	case localForm.MatchString(p):
		return "254" + p[1:], nil
	case bareForm.MatchString(p):
		return "254" + p, nil
	case intlForm.MatchString(p):
		return p, nil
	}
	return "", domain.ErrInvalidPhone
}
