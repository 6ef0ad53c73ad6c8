package rates

// RateType is one of the three prices published for a pair.
type RateType int

const (
	Spot RateType = iota
	Buy
	Sell
)

// Types lists the rate types in display order.
var Types = []RateType{Spot, Buy, Sell}

// ErrorAmount is shown in place of an amount that could not be read.
const ErrorAmount = "Error"

func (t RateType) String() string {
	switch t {
	case Spot:
		return "Spot"
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// Path returns the pricing API path segment for the rate type.
func (t RateType) Path() string {
	switch t {
	case Spot:
		return "spot"
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return ""
	}
}

// Quote is a single fetched price. OK is false when the upstream payload
// did not carry an amount.
type Quote struct {
	Type   RateType
	Amount string
	OK     bool
}

// NewQuote returns a successful quote.
func NewQuote(t RateType, amount string) Quote {
	return Quote{Type: t, Amount: amount, OK: true}
}

// ErrorQuote returns the error marker for t.
func ErrorQuote(t RateType) Quote {
	return Quote{Type: t}
}

// Display returns the amount, or ErrorAmount for an error marker.
func (q Quote) Display() string {
	if !q.OK {
		return ErrorAmount
	}
	return q.Amount
}
