package stats

import (
	"alcyxob/myhealth/internal/domain"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(weight, reps float64) domain.SetValues {
	return domain.SetValues{Weight: domain.Measure(weight), Reps: domain.Measure(reps)}
}

func logOf(date string, entries ...domain.ExerciseEntry) domain.WorkoutLog {
	return domain.WorkoutLog{Syncable: domain.Syncable{ID: date}, Name: "Session " + date, Date: date, Exercises: entries}
}

func TestComputeExerciseStats_VolumeAndMax(t *testing.T) {
	history := []domain.WorkoutLog{
		logOf("2025-01-01", domain.ExerciseEntry{Name: "Push Up", Logs: []domain.SetValues{set(0, 20), set(10, 15)}}),
	}

	st := ComputeExerciseStats(history, "Push Up")
	assert.Equal(t, 150.0, st.TotalVolume)
	assert.Equal(t, 10.0, st.MaxWeight)
	assert.Equal(t, "2025-01-01", st.PRDate)
}

func TestComputeExerciseStats_FirstMaxWins(t *testing.T) {
	history := []domain.WorkoutLog{
		logOf("2025-01-03", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(100, 5)}}),
		logOf("2025-01-01", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(100, 3)}}),
		logOf("2025-01-02", domain.ExerciseEntry{Name: "Bench", Logs: []domain.SetValues{set(200, 1)}}),
	}

	st := ComputeExerciseStats(history, "Squat")
	assert.Equal(t, 100.0, st.MaxWeight)
	assert.Equal(t, "2025-01-03", st.PRDate)
	assert.Equal(t, 800.0, st.TotalVolume)
}

func TestComputeExerciseStats_Unknown(t *testing.T) {
	st := ComputeExerciseStats(nil, "Deadlift")
	assert.Equal(t, ExerciseStats{}, st)
}

func TestComputeExerciseStats_SkipsDeleted(t *testing.T) {
	deleted := logOf("2025-01-01", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(300, 1)}})
	deleted.MarkDeleted(time.Now())
	st := ComputeExerciseStats([]domain.WorkoutLog{deleted}, "Squat")
	assert.Zero(t, st.MaxWeight)
}

func TestExerciseSeries(t *testing.T) {
	history := []domain.WorkoutLog{
		logOf("2025-01-05", domain.ExerciseEntry{ID: "ex-1", Name: "Squat", Logs: []domain.SetValues{set(100, 5), set(110, 3)}}),
		logOf("2025-01-02T18:30:00Z", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(90, 5)}}),
		logOf("2025-01-05", domain.ExerciseEntry{ID: "ex-1", Name: "Back Squat", Logs: []domain.SetValues{set(105, 5)}}),
		logOf("2025-01-04", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(0, 5)}}),
		logOf("not a date", domain.ExerciseEntry{Name: "Squat", Logs: []domain.SetValues{set(500, 5)}}),
	}

	points := ExerciseSeries(history, "ex-1", "Squat", MetricWeight)
	require.Len(t, points, 2)
	assert.Equal(t, ChartPoint{Value: 90, Label: "Jan 2", Date: "2025-01-02"}, points[0])
	assert.Equal(t, ChartPoint{Value: 110, Label: "Jan 5", Date: "2025-01-05"}, points[1])

	reps := ExerciseSeries(history, "", "Squat", MetricReps)
	require.Len(t, reps, 3)
	assert.Equal(t, "2025-01-04", reps[1].Date)
	assert.Equal(t, 5.0, reps[1].Value)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("Duration")
	require.NoError(t, err)
	assert.Equal(t, MetricDuration, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricWeight, m)

	_, err = ParseMetric("speed")
	assert.Error(t, err)
}

func TestLastPerformance(t *testing.T) {
	history := []domain.WorkoutLog{
		logOf("2025-01-01", domain.ExerciseEntry{Name: "Row", Logs: []domain.SetValues{set(50, 10)}}),
		logOf("2025-01-07", domain.ExerciseEntry{Name: "Row"}), // planned only, nothing logged
		logOf("2025-01-05", domain.ExerciseEntry{ID: "row-id", Name: "Barbell Row", Logs: []domain.SetValues{set(60, 8)}}),
		logOf("garbage", domain.ExerciseEntry{Name: "Row", Logs: []domain.SetValues{set(99, 1)}}),
	}

	perf, ok := LastPerformance(history, "row-id", "Row")
	require.True(t, ok)
	assert.Equal(t, "2025-01-05", perf.Date)
	assert.Equal(t, []domain.SetValues{set(60, 8)}, perf.Sets)

	perf, ok = LastPerformance(history, "", "Row")
	require.True(t, ok)
	assert.Equal(t, "2025-01-01", perf.Date)

	_, ok = LastPerformance(history, "", "Curl")
	assert.False(t, ok)
}

var today = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)

func measurement(date string, weight float64) domain.BodyMeasurement {
	return domain.BodyMeasurement{Syncable: domain.Syncable{ID: date}, UserID: "u", Weight: weight, Date: date}
}

func TestSpine_Sizes(t *testing.T) {
	tests := []struct {
		r     Range
		size  int
		first string
		last  string
	}{
		{RangeWeek, 7, "2025-03-09", "2025-03-15"},
		{RangeMonth, 30, "2025-02-14", "2025-03-15"},
		{RangeSixMonth, 26, "2024-09-15", "2025-03-09"},
		{RangeYear, 12, "2024-04-01", "2025-03-01"},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			spine := Spine(tt.r, today)
			require.Len(t, spine, tt.size)
			assert.Equal(t, tt.first, domain.FormatDay(spine[0]))
			assert.Equal(t, tt.last, domain.FormatDay(spine[len(spine)-1]))
		})
	}
}

func TestWeightSpine_WeekAlwaysSevenBuckets(t *testing.T) {
	var ms []domain.BodyMeasurement
	for n := 0; n <= 10; n++ {
		t.Run(fmt.Sprintf("%d measurements", n), func(t *testing.T) {
			chart := WeightSpine(RangeWeek, ms, today)
			assert.Len(t, chart.Buckets, 7)

			labelled := 0
			for _, b := range chart.Buckets {
				if b.Label != "" {
					labelled++
				}
			}
			assert.Equal(t, 5, labelled)
		})
		ms = append(ms, measurement(domain.FormatDay(today.AddDate(0, 0, -n)), 80+float64(n)))
	}
}

func TestWeightSpine_Week(t *testing.T) {
	ms := []domain.BodyMeasurement{
		measurement("2025-03-15", 80),
		measurement("2025-03-09", 81),
		measurement("2025-03-08", 90), // before the spine
	}
	second := measurement("2025-03-15", 81)
	second.ID = "dup"
	ms = append(ms, second)

	chart := WeightSpine(RangeWeek, ms, today)
	assert.Equal(t, "Mar 9", chart.Buckets[0].Label)
	assert.Equal(t, "Mar 10", chart.Buckets[1].Label, "index floor(6*0.25)")
	assert.Equal(t, "Mar 12", chart.Buckets[3].Label)
	assert.Empty(t, chart.Buckets[2].Label)
	assert.Equal(t, "Mar 13", chart.Buckets[4].Label)
	assert.Equal(t, "Mar 15", chart.Buckets[6].Label)

	require.NotNil(t, chart.Buckets[6].Value)
	assert.Equal(t, 80.5, *chart.Buckets[6].Value)
	assert.Nil(t, chart.Buckets[3].Value, "empty buckets stay empty")
	assert.Len(t, chart.Points, 2)

	require.NotNil(t, chart.RangeAverage)
	assert.Equal(t, 80.7, *chart.RangeAverage)
}

func TestWeightSpine_SixMonthAndYear(t *testing.T) {
	ms := []domain.BodyMeasurement{
		measurement("2025-03-10", 80), // last week bucket starts 2025-03-09
		measurement("2025-03-08", 82), // previous week bucket
		measurement("2024-04-20", 90),
	}

	six := WeightSpine(RangeSixMonth, ms, today)
	require.Len(t, six.Buckets, 26)
	assert.Equal(t, 80.0, *six.Buckets[25].Value)
	assert.Equal(t, 82.0, *six.Buckets[24].Value)

	year := WeightSpine(RangeYear, ms, today)
	require.Len(t, year.Buckets, 12)
	assert.Equal(t, 81.0, *year.Buckets[11].Value)
	assert.Equal(t, 90.0, *year.Buckets[0].Value)
	assert.Equal(t, "Apr", year.Buckets[0].Label)
	assert.Equal(t, "Mar", year.Buckets[11].Label)
}

func TestWeightSpine_FutureDaysExcluded(t *testing.T) {
	ms := []domain.BodyMeasurement{
		measurement("2025-03-14", 80),
		measurement("2025-03-16", 100), // tomorrow
		measurement("2025-06-01", 100),
	}

	for _, r := range []Range{RangeWeek, RangeMonth, RangeSixMonth, RangeYear} {
		t.Run(string(r), func(t *testing.T) {
			chart := WeightSpine(r, ms, today)
			require.NotNil(t, chart.RangeAverage)
			assert.Equal(t, 80.0, *chart.RangeAverage)
			require.Len(t, chart.Points, 1)
			assert.Equal(t, 80.0, chart.Points[0].Value)
		})
	}
}

func TestWeightSpine_Empty(t *testing.T) {
	chart := WeightSpine(RangeMonth, nil, today)
	assert.Len(t, chart.Buckets, 30)
	assert.Empty(t, chart.Points)
	assert.Nil(t, chart.RangeAverage)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("6Month")
	require.NoError(t, err)
	assert.Equal(t, RangeSixMonth, r)

	_, err = ParseRange("Decade")
	assert.Error(t, err)
}

func TestLatestAndSort(t *testing.T) {
	ms := []domain.BodyMeasurement{measurement("2025-01-01", 145), measurement("2024-12-31", 140)}

	latest, ok := Latest(ms)
	require.True(t, ok)
	assert.Equal(t, 145.0, latest.Weight)

	SortByDate(ms)
	assert.Equal(t, "2024-12-31", ms[0].Date)

	_, ok = Latest(nil)
	assert.False(t, ok)
}
