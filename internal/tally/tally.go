// Package tally turns recorded answers into per-option results.
package tally

import "github.com/aura-classroom/livepoll/internal/models"

// Compute counts answers per option and derives percentages.
// Results keep the options' original order, including options with no votes.
// Percentages are rounded half up and are not adjusted to sum to exactly 100.
// Answers outside the option range are ignored.
func Compute(options []string, answers []int) []models.Result {
	counts := make([]int, len(options))
	total := 0
	for _, a := range answers {
		if a < 0 || a >= len(options) {
			continue
		}
		counts[a]++
		total++
	}

	results := make([]models.Result, len(options))
	for i, opt := range options {
		results[i] = models.Result{Option: opt, Count: counts[i], Percentage: percent(counts[i], total)}
	}
	return results
}

// percent returns round(100*n/total) with halves rounded up, or 0 when total is 0.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return (200*n + total) / (2 * total)
}

// Total returns the number of votes in results.
func Total(results []models.Result) int {
	sum := 0
	for _, r := range results {
		sum += r.Count
	}
	return sum
}
