package orders

import (
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
)

const (
	timelineKindHistory   = "history"
	timelineKindMilestone = "milestone"
)

type timelinePoint struct {
	at    time.Time
	entry TimelineEntry
}

// buildTimeline merges history rows with header milestones in time order.
// History keeps its stored order when timestamps tie. A milestone sorts after
// every history row of its own day and never ahead of the first row.
func buildTimeline(order *models.PurchaseOrder) []TimelineEntry {
	points := make([]timelinePoint, 0, len(order.History)+1)
	for _, h := range order.History {
		points = append(points, timelinePoint{
			at: h.CreatedAt,
			entry: TimelineEntry{
				Title:       h.Action.String(),
				Description: h.Comment,
				Actor:       h.Actor,
				Date:        h.CreatedAt.UTC().Format(time.RFC3339),
				Kind:        timelineKindHistory,
			},
		})
	}
	if order.EstimatedDeliveryDate != nil {
		eta := *order.EstimatedDeliveryDate
		points = append(points, timelinePoint{
			at: milestoneAt(eta, order.History),
			entry: TimelineEntry{
				Title:       "Estimated delivery",
				Description: fmt.Sprintf("Delivery expected on %s", formatDate(eta)),
				Date:        eta.UTC().Format(time.RFC3339),
				Kind:        timelineKindMilestone,
			},
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].at.Before(points[j].at)
	})

	out := make([]TimelineEntry, len(points))
	for i, p := range points {
		out[i] = p.entry
	}
	return out
}

func milestoneAt(day time.Time, history []models.PurchaseOrderHistory) time.Time {
	at := day.AddDate(0, 0, 1)
	if len(history) > 0 && at.Before(history[0].CreatedAt) {
		at = history[0].CreatedAt
	}
	return at
}

func formatSizeMB(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}
