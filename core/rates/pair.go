package rates

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultTo is the quote currency used when a query names only one code.
const DefaultTo = "EUR"

const codeLen = 3

// ErrInvalidPair is returned when a query does not name a usable currency pair.
var ErrInvalidPair = errors.New("usage: /rate <FROM> [TO]")

// Pair identifies an exchange rate, e.g. BTC-EUR.
type Pair struct {
	From string
	To   string
}

// String returns the pair in the pricing API's FROM-TO form.
func (p Pair) String() string {
	return p.From + "-" + p.To
}

// ParseQuery extracts a currency pair from free query text such as "btc" or
// "eth usd". Codes are uppercased and must be exactly three characters long;
// anything else is rejected.
func ParseQuery(text string) (Pair, bool) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return Pair{}, false
	}

	fields := strings.Fields(text)
	p := Pair{From: fields[0], To: DefaultTo}
	if len(fields) > 1 {
		p.To = fields[1]
	}

	if utf8.RuneCountInString(p.From) != codeLen || utf8.RuneCountInString(p.To) != codeLen {
		return Pair{}, false
	}
	return p, true
}
