// Package timeline renders the messages of a thread in date order.
package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// Build returns a markdown timeline with one line per message, oldest first.
// Messages without a usable date come before all dated ones.
func Build(threadID string, messages []*model.Message) string {
	if len(messages) == 0 {
		return fmt.Sprintf("No messages found for thread %s.", threadID)
	}

	sorted := append([]*model.Message{}, messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(sorted[i].Date, sorted[j].Date)
	})

	lines := []string{fmt.Sprintf("### Timeline for thread %s", threadID), ""}
	for _, m := range sorted {
		from := m.From
		if from == "" {
			from = "(unknown)"
		}
		subject := m.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		lines = append(lines, fmt.Sprintf("- **%s** — **%s** — _%s_ [msg: %s]", helper.FormatDate(m.Date), from, subject, m.MessageID))
	}
	return strings.Join(lines, "\n")
}

// before puts messages with missing or unparsable dates first, in input
// order, followed by the others in chronological order
func before(a, b string) bool {
	ta, okA := helper.ParseDate(a)
	tb, okB := helper.ParseDate(b)
	if okA != okB {
		return !okA
	}
	if !okA {
		return false
	}
	return ta.Before(tb)
}
