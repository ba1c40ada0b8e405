package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

var agingRanges = []struct {
	label   string
	maxDays int
}{
	{label: "0-3", maxDays: 3},
	{label: "4-7", maxDays: 7},
	{label: "8-15", maxDays: 15},
	{label: ">15", maxDays: -1},
}

var hundred = decimal.NewFromInt(100)

// BucketAging histograms issue dates by whole days elapsed until today.
// Dates in the future count as zero days old.
func BucketAging(today time.Time, issueDates []time.Time) []AgingBucket {
	buckets := make([]AgingBucket, len(agingRanges))
	for i, r := range agingRanges {
		buckets[i].Label = r.label
	}

	for _, issued := range issueDates {
		days := daysBetween(issued, today)
		buckets[bucketIndex(days)].Count++
	}

	total := len(issueDates)
	if total == 0 {
		for i := range buckets {
			buckets[i].Percentage = "0"
		}
		return buckets
	}

	pcts := make([]decimal.Decimal, len(buckets))
	sum := decimal.Zero
	largest := 0
	for i := range buckets {
		pcts[i] = decimal.NewFromInt(int64(buckets[i].Count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(1)
		sum = sum.Add(pcts[i])
		if buckets[i].Count > buckets[largest].Count {
			largest = i
		}
	}
	// Rounding residue goes to the largest bucket so the shares add up to 100.
	pcts[largest] = pcts[largest].Add(hundred.Sub(sum))
	for i := range buckets {
		buckets[i].Percentage = pcts[i].StringFixed(1)
	}
	return buckets
}

func bucketIndex(days int) int {
	for i, r := range agingRanges {
		if r.maxDays < 0 || days <= r.maxDays {
			return i
		}
	}
	return len(agingRanges) - 1
}

func daysBetween(from, to time.Time) int {
	start := civilDate(from)
	end := civilDate(to)
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
