package stats

import (
	"alcyxob/myhealth/internal/domain"
	"fmt"
	"math"
	"sort"
	"time"
)

// Range is a body weight chart window.
type Range string

const (
	RangeWeek     Range = "Week"   // 7 daily buckets
	RangeMonth    Range = "Month"  // 30 daily buckets
	RangeSixMonth Range = "6Month" // 26 weekly buckets
	RangeYear     Range = "Year"   // 12 monthly buckets
)

func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case RangeWeek, RangeMonth, RangeSixMonth, RangeYear:
		return r, nil
	case "":
		return RangeWeek, nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Spine returns the bucket start days of r ending at today, oldest first.
func Spine(r Range, today time.Time) []time.Time {
	today = domain.Day(today)
	var spine []time.Time
	switch r {
	case RangeMonth:
		for i := 29; i >= 0; i-- {
			spine = append(spine, today.AddDate(0, 0, -i))
		}
	case RangeSixMonth:
		// The newest bucket is the week ending today
		lastWeekStart := today.AddDate(0, 0, -6)
		for i := 25; i >= 0; i-- {
			spine = append(spine, lastWeekStart.AddDate(0, 0, -7*i))
		}
	case RangeYear:
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := 11; i >= 0; i-- {
			spine = append(spine, monthStart.AddDate(0, -i, 0))
		}
	default:
		for i := 6; i >= 0; i-- {
			spine = append(spine, today.AddDate(0, 0, -i))
		}
	}
	return spine
}

// labelIndices are the five spine positions carrying an axis label.
func labelIndices(n int) map[int]bool {
	idx := make(map[int]bool, 5)
	if n == 0 {
		return idx
	}
	last := n - 1
	for _, f := range []float64{0, 0.25, 0.5, 0.75} {
		idx[int(math.Floor(float64(last)*f))] = true
	}
	idx[last] = true
	return idx
}

func label(r Range, day time.Time) string {
	if r == RangeYear {
		return day.Format("Jan")
	}
	return day.Format(dayLabelLayout)
}

// SpineBucket is one slot of the weight chart. Value is nil when no measurement fell into it.
type SpineBucket struct {
	Date  string   `json:"date"`
	Label string   `json:"label"`
	Value *float64 `json:"value"`
	Count int      `json:"count"`
}

// WeightChart is the body weight history for one range.
type WeightChart struct {
	Range        Range         `json:"range"`
	Buckets      []SpineBucket `json:"buckets"`
	Points       []ChartPoint  `json:"points"` // Filled buckets only, in spine order
	RangeAverage *float64      `json:"rangeAverage"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// bucketIndex maps a measurement day onto the spine, or -1 when it falls outside.
func bucketIndex(r Range, spine []time.Time, day time.Time) int {
	if len(spine) == 0 || day.Before(spine[0]) {
		return -1
	}
	switch r {
	case RangeSixMonth:
		for i := len(spine) - 1; i >= 0; i-- {
			if !day.Before(spine[i]) {
				return i
			}
		}
	case RangeYear:
		month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i, s := range spine {
			if s.Equal(month) {
				return i
			}
		}
	default:
		for i, s := range spine {
			if s.Equal(day) {
				return i
			}
		}
	}
	return -1
}

// WeightSpine builds the chart for r ending at today. The spine is generated first and
// measurements are averaged into it, so the bucket count never depends on the data.
// RangeAverage is the mean of every measurement from the first bucket through today.
// Measurements dated after today are left out of every range.
func WeightSpine(r Range, measurements []domain.BodyMeasurement, today time.Time) WeightChart {
	spine := Spine(r, today)
	last := domain.Day(today)
	labels := labelIndices(len(spine))

	sums := make([]float64, len(spine))
	counts := make([]int, len(spine))
	var total float64
	var n int
	for _, m := range measurements {
		if m.IsDeleted() {
			continue
		}
		day, err := domain.ParseDay(m.Date)
		if err != nil || len(spine) == 0 || day.Before(spine[0]) || day.After(last) {
			continue
		}
		total += m.Weight
		n++
		if i := bucketIndex(r, spine, day); i >= 0 {
			sums[i] += m.Weight
			counts[i]++
		}
	}

	chart := WeightChart{
		Range:   r,
		Buckets: make([]SpineBucket, len(spine)),
		Points:  make([]ChartPoint, 0),
	}
	for i, s := range spine {
		b := SpineBucket{Date: domain.FormatDay(s), Count: counts[i]}
		if labels[i] {
			b.Label = label(r, s)
		}
		if counts[i] > 0 {
			avg := round(sums[i]/float64(counts[i]), 2)
			b.Value = &avg
			chart.Points = append(chart.Points, ChartPoint{Value: avg, Label: b.Label, Date: b.Date})
		}
		chart.Buckets[i] = b
	}
	if n > 0 {
		avg := round(total/float64(n), 1)
		chart.RangeAverage = &avg
	}
	return chart
}

// SortByDate orders measurements by ascending ISO date.
func SortByDate(ms []domain.BodyMeasurement) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Date < ms[j].Date
	})
}

// Latest returns the measurement with the greatest date, if any.
func Latest(ms []domain.BodyMeasurement) (domain.BodyMeasurement, bool) {
	var latest domain.BodyMeasurement
	found := false
	for _, m := range ms {
		if m.IsDeleted() {
			continue
		}
		if !found || m.Date > latest.Date {
			latest = m
			found = true
		}
	}
	return latest, found
}
