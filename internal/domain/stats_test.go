package domain

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateStats(t *testing.T) {
	t.Parallel()

	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return ts
	}

	tasks := []*Task{
		{Status: TaskStatusComplete, Deadline: at("2026-02-01T10:00:00Z")},
		{Status: TaskStatusExpired, Deadline: at("2026-02-01T23:59:59Z")},
		// 2026-02-02T01:00 in UTC despite the local offset
		{Status: TaskStatusComplete, Deadline: at("2026-02-01T20:00:00-05:00")},
		{Status: TaskStatusExpired, Deadline: at("2026-01-15T08:00:00Z")},
		{Status: TaskStatusActive, Deadline: at("2026-01-15T08:00:00Z")},
		{Status: TaskStatusInProgress, Deadline: at("2026-03-15T08:00:00Z")},
	}

	stats := AggregateStats(tasks)

	assert.Equal(t, []StatsBucket{
		{Date: "2026-01-15", Completed: 0, Expired: 1},
		{Date: "2026-02-01", Completed: 1, Expired: 1},
		{Date: "2026-02-02", Completed: 1, Expired: 0},
	}, stats.Daily)

	assert.Equal(t, []StatsBucket{
		{Month: "2026-01", Completed: 0, Expired: 1},
		{Month: "2026-02", Completed: 2, Expired: 1},
	}, stats.Monthly)
}

func TestAggregateStatsEmpty(t *testing.T) {
	t.Parallel()

	stats := AggregateStats(nil)
	assert.NotNil(t, stats.Daily)
	assert.NotNil(t, stats.Monthly)
	assert.Empty(t, stats.Daily)
	assert.Empty(t, stats.Monthly)
}

func TestStatsBucketJSONKeys(t *testing.T) {
	t.Parallel()

	stats := AggregateStats([]*Task{
		{Status: TaskStatusComplete, Deadline: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
	})

	daily, err := json.Marshal(stats.Daily)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2026-02-01","completed":1,"expired":0}]`, string(daily))

	monthly, err := json.Marshal(stats.Monthly)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"month":"2026-02","completed":1,"expired":0}]`, string(monthly))
}

func TestAggregateStatsCountsSumToInput(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 20; round++ {
		var tasks []*Task
		finished := 0
		n := rng.Intn(200)
		for i := 0; i < n; i++ {
			status := allStatuses[rng.Intn(len(allStatuses))]
			if status == TaskStatusComplete || status == TaskStatusExpired {
				finished++
			}
			tasks = append(tasks, &Task{
				Status:   status,
				Deadline: base.Add(time.Duration(rng.Int63n(int64(400 * 24 * time.Hour)))),
			})
		}

		stats := AggregateStats(tasks)
		assert.Equal(t, finished, sumBuckets(stats.Daily))
		assert.Equal(t, finished, sumBuckets(stats.Monthly))
		assert.IsIncreasing(t, bucketKeys(stats.Daily))
		assert.IsIncreasing(t, bucketKeys(stats.Monthly))
	}
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 5, 3, 22, 30, 0, 0, time.FixedZone("E", 4*3600))
	start, end := DayBounds(in)
	assert.Equal(t, time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), end)
}

func sumBuckets(buckets []StatsBucket) int {
	n := 0
	for _, b := range buckets {
		n += b.Completed + b.Expired
	}
	return n
}

func bucketKeys(buckets []StatsBucket) []string {
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key()
	}
	return keys
}
