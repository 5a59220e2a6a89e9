package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"cafe-gateway/internal/domain"
)

// KitchenKPIs summarizes a batch of kitchen orders.
type KitchenKPIs struct {
	StatusCounts      map[string]int `json:"status_count_map"`
	AvgDurationMin    int            `json:"avg_duration_min"`
	MedianDurationMin int            `json:"median_duration_min"`
	P95DurationMin    int            `json:"p95_duration_min"`
	DoneRatePct       int            `json:"done_rate_pct"`
	CancelRatePct     int            `json:"cancel_rate_pct"`
}

// ComputeKitchenKPIs runs a single pass over the orders, counting statuses
// and collecting receive-to-done durations in whole minutes (negative diffs
// clamp to zero). Median uses even/odd index averaging; p95 is nearest-rank,
// sorted[floor(0.95*n)], not interpolated.
func ComputeKitchenKPIs(orders []domain.KitchenOrder) KitchenKPIs {
	statusCounts := map[string]int{}
	var done, cancelled int
	var durations []int

	for _, o := range orders {
		statusCounts[o.Status]++
		if o.Status == domain.StatusDone {
			done++
		}
		if o.Status == domain.StatusCancelled {
			cancelled++
		}
		if o.TimeReceive != "" && o.TimeDone != "" {
			start, errStart := parseOrderTime(o.TimeReceive)
			end, errEnd := parseOrderTime(o.TimeDone)
			if errStart == nil && errEnd == nil {
				diffMin := int(math.Round(end.Sub(start).Minutes()))
				if diffMin < 0 {
					diffMin = 0
				}
				durations = append(durations, diffMin)
			}
		}
	}

	total := len(orders)
	kpis := KitchenKPIs{StatusCounts: statusCounts}
	if n := len(durations); n > 0 {
		sum := 0
		for _, d := range durations {
			sum += d
		}
		kpis.AvgDurationMin = int(math.Round(float64(sum) / float64(n)))

		sorted := append([]int(nil), durations...)
		sort.Ints(sorted)
		if n%2 == 1 {
			kpis.MedianDurationMin = sorted[(n-1)/2]
		} else {
			kpis.MedianDurationMin = int(math.Round(float64(sorted[n/2-1]+sorted[n/2]) / 2))
		}
		p95Idx := int(math.Floor(0.95 * float64(n)))
		if p95Idx > n-1 {
			p95Idx = n - 1
		}
		kpis.P95DurationMin = sorted[p95Idx]
	}
	if total > 0 {
		kpis.DoneRatePct = int(math.Round(float64(done) / float64(total) * 100))
		kpis.CancelRatePct = int(math.Round(float64(cancelled) / float64(total) * 100))
	}
	return kpis
}

func parseOrderTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"02/01/2006 15:04",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
