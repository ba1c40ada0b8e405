package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBucketAgingEmpty(t *testing.T) {
	buckets := BucketAging(day(2025, time.March, 20), nil)
	require.Len(t, buckets, 4)
	for _, b := range buckets {
		assert.Equal(t, 0, b.Count)
		assert.Equal(t, "0", b.Percentage)
	}
	assert.Equal(t, []string{"0-3", "4-7", "8-15", ">15"}, labels(buckets))
}

func TestBucketAgingBoundaries(t *testing.T) {
	today := time.Date(2025, time.March, 20, 18, 30, 0, 0, time.UTC)
	dates := []time.Time{
		day(2025, time.March, 20), // 0
		day(2025, time.March, 17), // 3
		day(2025, time.March, 16), // 4
		day(2025, time.March, 13), // 7
		day(2025, time.March, 12), // 8
		day(2025, time.March, 5),  // 15
		day(2025, time.March, 4),  // 16
		day(2025, time.March, 25), // future
	}

	buckets := BucketAging(today, dates)
	assert.Equal(t, []int{3, 2, 2, 1}, counts(buckets))
	assert.Equal(t, "37.5", buckets[0].Percentage)
	assert.Equal(t, "25.0", buckets[1].Percentage)
	assert.Equal(t, "25.0", buckets[2].Percentage)
	assert.Equal(t, "12.5", buckets[3].Percentage)
}

func TestBucketAgingCountsAndPercentagesAddUp(t *testing.T) {
	today := day(2025, time.June, 30)
	for total := 1; total <= 40; total++ {
		dates := make([]time.Time, 0, total)
		for i := 0; i < total; i++ {
			dates = append(dates, today.AddDate(0, 0, -(i*3)%29))
		}

		buckets := BucketAging(today, dates)
		sumCount := 0
		sumPct := decimal.Zero
		for _, b := range buckets {
			sumCount += b.Count
			sumPct = sumPct.Add(decimal.RequireFromString(b.Percentage))
		}
		require.Equal(t, total, sumCount)
		require.True(t, sumPct.Equal(decimal.NewFromInt(100)), "total=%d sum=%s", total, sumPct)
	}
}

func TestBucketAgingAssignsRoundingResidueToLargestBucket(t *testing.T) {
	today := day(2025, time.June, 30)

	thirds := BucketAging(today, []time.Time{today, today.AddDate(0, 0, -5), today.AddDate(0, 0, -10)})
	assert.Equal(t, []string{"33.4", "33.3", "33.3", "0.0"}, percentages(thirds))

	dates := []time.Time{today.AddDate(0, 0, -20)}
	for i := 0; i < 6; i++ {
		dates = append(dates, today.AddDate(0, 0, -5))
	}
	// 1/7 and 6/7 round to 14.3 and 85.7, which already add up.
	sevenths := BucketAging(today, dates)
	assert.Equal(t, []string{"0.0", "85.7", "0.0", "14.3"}, percentages(sevenths))
}

func TestBucketAgingUsesCalendarDaysInTodayLocation(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	// 01:00 UTC on the 21st is still the 20th in Lima.
	today := time.Date(2025, time.March, 21, 1, 0, 0, 0, time.UTC).In(lima)

	buckets := BucketAging(today, []time.Time{day(2025, time.March, 16)})
	assert.Equal(t, []int{0, 1, 0, 0}, counts(buckets))
}

func labels(buckets []AgingBucket) []string {
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Label)
	}
	return out
}

func counts(buckets []AgingBucket) []int {
	out := make([]int, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Count)
	}
	return out
}

func percentages(buckets []AgingBucket) []string {
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Percentage)
	}
	return out
}
