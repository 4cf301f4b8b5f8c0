// Package stats holds the pure aggregation functions over workout history and
// body measurements. Nothing here touches storage.
package stats

import (
	"alcyxob/myhealth/internal/domain"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExerciseStats summarizes every logged set of one exercise.
type ExerciseStats struct {
	MaxWeight   float64 `json:"maxWeight"`
	TotalVolume float64 `json:"totalVolume"` // Σ weight·reps
	PRDate      string  `json:"prDate,omitempty"`
}

// ComputeExerciseStats scans history in the given order. PRDate is the date of the
// first set reaching the maximum weight; later ties do not move it.
func ComputeExerciseStats(history []domain.WorkoutLog, name string) ExerciseStats {
	var st ExerciseStats
	for _, log := range history {
		if log.IsDeleted() {
			continue
		}
		for _, entry := range log.Exercises {
			if entry.Name != name {
				continue
			}
			for _, set := range entry.Logs {
				w, r := set.Weight.Float(), set.Reps.Float()
				if w > st.MaxWeight {
					st.MaxWeight = w
					st.PRDate = log.Date
				}
				if w > 0 && r > 0 {
					st.TotalVolume += w * r
				}
			}
		}
	}
	return st
}

// Metric selects which set value a series plots.
type Metric string

const (
	MetricWeight   Metric = "weight"
	MetricReps     Metric = "reps"
	MetricDuration Metric = "duration"
	MetricDistance Metric = "distance"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricWeight, MetricReps, MetricDuration, MetricDistance:
		return m, nil
	case "":
		return MetricWeight, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

func (m Metric) of(set domain.SetValues) float64 {
	switch m {
	case MetricReps:
		return set.Reps.Float()
	case MetricDuration:
		return set.Duration.Float()
	case MetricDistance:
		return set.Distance.Float()
	default:
		return set.Weight.Float()
	}
}

// ChartPoint is one plotted value. Label may be empty when the axis shows no tick there.
type ChartPoint struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Date  string  `json:"date"`
}

const dayLabelLayout = "Jan 2"

// ExerciseSeries returns, per calendar day, the best value of metric across all sets of
// the exercise (matched by catalog id or by name), in ascending date order.
// Days without a positive value are left out.
func ExerciseSeries(history []domain.WorkoutLog, exerciseID, name string, metric Metric) []ChartPoint {
	best := make(map[time.Time]float64)
	for _, log := range history {
		if log.IsDeleted() {
			continue
		}
		day, err := domain.ParseDay(log.Date)
		if err != nil {
			continue
		}
		for i := range log.Exercises {
			entry := &log.Exercises[i]
			if !entry.Matches(exerciseID, name) {
				continue
			}
			for _, set := range entry.Logs {
				if v := metric.of(set); v > 0 && v > best[day] {
					best[day] = v
				}
			}
		}
	}

	days := make([]time.Time, 0, len(best))
	for d := range best {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]ChartPoint, 0, len(days))
	for _, d := range days {
		points = append(points, ChartPoint{
			Value: best[d],
			Label: d.Format(dayLabelLayout),
			Date:  domain.FormatDay(d),
		})
	}
	return points
}

// Performance is the most recent logged session of an exercise.
type Performance struct {
	Date        string             `json:"date"`
	WorkoutName string             `json:"workoutName"`
	Sets        []domain.SetValues `json:"sets"`
}

// LastPerformance finds the newest session (by date) containing logged sets of the
// exercise. Logs with unparseable dates sort last.
func LastPerformance(history []domain.WorkoutLog, exerciseID, name string) (Performance, bool) {
	type dated struct {
		day time.Time
		ok  bool
		log *domain.WorkoutLog
	}
	ordered := make([]dated, 0, len(history))
	for i := range history {
		if history[i].IsDeleted() {
			continue
		}
		day, err := domain.ParseDay(history[i].Date)
		ordered = append(ordered, dated{day: day, ok: err == nil, log: &history[i]})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ok != ordered[j].ok {
			return ordered[i].ok
		}
		return ordered[i].day.After(ordered[j].day)
	})

	for _, d := range ordered {
		for i := range d.log.Exercises {
			entry := &d.log.Exercises[i]
			if entry.Matches(exerciseID, name) && len(entry.Logs) > 0 {
				return Performance{Date: d.log.Date, WorkoutName: d.log.Name, Sets: entry.Logs}, true
			}
		}
	}
	return Performance{}, false
}
