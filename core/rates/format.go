package rates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AllRatesTitle is the title of the aggregate result.
const AllRatesTitle = "All rates"

// Result is one selectable inline answer. Message is Markdown.
type Result struct {
	ID      string
	Title   string
	Message string
}

// Format turns quotes into inline results: an "All rates" aggregate followed
// by one result per quote. Every result gets a new id.
func Format(pair Pair, quotes []Quote) []Result {
	results := make([]Result, 0, len(quotes)+1)
	lines := make([]string, 0, len(quotes))

	for _, q := range quotes {
		content := fmt.Sprintf("%s rate: %s", q.Type, q.Display())
		msg := fmt.Sprintf("%s to %s -> *%s*", pair.From, pair.To, content)
		lines = append(lines, msg)
		results = append(results, Result{
			ID:      uuid.NewString(),
			Title:   content,
			Message: msg,
		})
	}

	all := Result{
		ID:      uuid.NewString(),
		Title:   AllRatesTitle,
		Message: strings.Join(lines, "\n"),
	}
	return append([]Result{all}, results...)
}

// Summary renders quotes as plain text for a chat reply.
func Summary(pair Pair, quotes []Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s to %s", pair.From, pair.To)
	for _, q := range quotes {
		fmt.Fprintf(&b, "\n%s rate: %s", q.Type, q.Display())
	}
	return b.String()
}
