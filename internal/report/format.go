// Package report formats recognition results and persists the run report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/tsukumogami/ocrbatch/internal/pricing"
	"github.com/tsukumogami/ocrbatch/internal/recognize"
)

// Summary holds the totals written in the trailing block of a report.
type Summary struct {
	TotalResponseTime time.Duration
	TotalTokens       int
	AverageTokens     float64
	TotalCost         pricing.Breakdown
}

// FormatEntry renders the block for one successfully recognized image.
func FormatEntry(name string, res *recognize.Result, cost pricing.Breakdown, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", name, res.Text)
	fmt.Fprintf(&b, "  Response Time: %.2f seconds\n", res.ResponseSeconds())
	fmt.Fprintf(&b, "  Token Usage: %d (%d input + %d output)\n", res.TotalTokens, res.InputTokens, res.OutputTokens)
	fmt.Fprintf(&b, "  Cost: %s\n", formatCost(cost, currency))
	return b.String()
}

// FormatSummary renders the aggregate block.
func FormatSummary(s Summary, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Response Time: %.2f seconds\n", s.TotalResponseTime.Seconds())
	fmt.Fprintf(&b, "Total Tokens: %d\n", s.TotalTokens)
	fmt.Fprintf(&b, "Average Tokens: %.2f\n", s.AverageTokens)
	fmt.Fprintf(&b, "Total Cost: %s\n", formatCost(s.TotalCost, currency))
	return b.String()
}

func formatCost(c pricing.Breakdown, currency string) string {
	return fmt.Sprintf("%s (%.2f %s)", c, c.Secondary, currency)
}

// Render joins entries with a blank line between them.
func Render(entries []string) string {
	return strings.Join(entries, "\n")
}
