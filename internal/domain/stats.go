package domain

import (
	"sort"
	"time"
)

// Date key layouts used when bucketing finished tasks.
const (
	DailyKeyLayout   = "2006-01-02"
	MonthlyKeyLayout = "2006-01"
)

// StatsBucket counts finished tasks sharing a deadline day or month. Daily
// buckets set Date and monthly buckets set Month.
type StatsBucket struct {
	Date      string `json:"date,omitempty"`
	Month     string `json:"month,omitempty"`
	Completed int    `json:"completed"`
	Expired   int    `json:"expired"`
}

// Key returns the bucket's day or month.
func (b StatsBucket) Key() string {
	if b.Month != "" {
		return b.Month
	}
	return b.Date
}

// Stats holds the daily and monthly reductions, each sorted ascending by date.
type Stats struct {
	Daily   []StatsBucket `json:"daily_stats"`
	Monthly []StatsBucket `json:"monthly_stats"`
}

// AggregateStats buckets COMPLETE and EXPIRED tasks by their deadline in UTC.
// Tasks in any other status are ignored.
func AggregateStats(tasks []*Task) Stats {
	return Stats{
		Daily: bucketBy(tasks, DailyKeyLayout, func(key string) StatsBucket {
			return StatsBucket{Date: key}
		}),
		Monthly: bucketBy(tasks, MonthlyKeyLayout, func(key string) StatsBucket {
			return StatsBucket{Month: key}
		}),
	}
}

func bucketBy(tasks []*Task, layout string, newBucket func(key string) StatsBucket) []StatsBucket {
	buckets := make(map[string]*StatsBucket)
	for _, t := range tasks {
		if t.Status != TaskStatusComplete && t.Status != TaskStatusExpired {
			continue
		}
		key := t.Deadline.UTC().Format(layout)
		b, ok := buckets[key]
		if !ok {
			nb := newBucket(key)
			b = &nb
			buckets[key] = b
		}
		if t.Status == TaskStatusComplete {
			b.Completed++
		} else {
			b.Expired++
		}
	}

	out := make([]StatsBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	// Both layouts sort lexically in chronological order.
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// DayBounds returns the UTC half-open interval [start, end) covering the
// calendar day of t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
