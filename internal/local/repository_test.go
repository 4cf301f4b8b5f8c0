package local

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/stats"
	"alcyxob/myhealth/internal/storage"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo  *Repository
	kv    *storage.MemoryStore
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewMemoryStore()
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	f := &fixture{kv: kv, clock: &now}
	var seq atomic.Int64
	f.repo = New(storage.New(kv),
		WithClock(func() time.Time { return *f.clock }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestSaveWorkout_OfflineIsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.repo.SaveWorkout(ctx, domain.SavedWorkout{Name: "Push Day"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", w.ID)
	assert.Equal(t, domain.SyncPending, w.SyncStatus)
	assert.Equal(t, f.clock.UnixMilli(), w.UpdatedAt)
	assert.False(t, w.KnownRemotely())

	got := f.repo.GetWorkouts(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SyncPending, got[0].SyncStatus)
	assert.NotNil(t, got[0].Exercises)
}

func TestSaveWorkout_NewestFirstAndReplaceInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.repo.SaveWorkout(ctx, domain.SavedWorkout{Name: "A"})
	require.NoError(t, err)
	_, err = f.repo.SaveWorkout(ctx, domain.SavedWorkout{Name: "B"})
	require.NoError(t, err)

	names := func() []string {
		var out []string
		for _, w := range f.repo.GetWorkouts(ctx) {
			out = append(out, w.Name)
		}
		return out
	}
	assert.Equal(t, []string{"B", "A"}, names())

	// Simulate a confirmed push, then edit
	f.repo.Workouts().MarkPushed(ctx, first.ID, first.Revision, "", f.repo.Now())
	f.advance(time.Minute)
	first.Name = "A2"
	first.CreatedAt = "rewritten"
	edited, err := f.repo.SaveWorkout(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A2"}, names())
	assert.Equal(t, domain.SyncPending, edited.SyncStatus)
	assert.True(t, edited.KnownRemotely(), "remote acknowledgement survives a local edit")
	assert.Equal(t, "2025-01-10T09:00:00Z", edited.CreatedAt)
}

func TestSaveWorkout_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.SaveWorkout(context.Background(), domain.SavedWorkout{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.repo.GetWorkouts(context.Background()))
}

func TestDeleteWorkout_SoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.repo.SaveWorkout(ctx, domain.SavedWorkout{Name: "Legs"})
	require.NoError(t, err)
	f.advance(time.Second)
	require.NoError(t, f.repo.DeleteWorkout(ctx, w.ID))

	assert.Empty(t, f.repo.GetWorkouts(ctx))

	raw := f.repo.Workouts().All(ctx)
	require.Len(t, raw, 1)
	assert.Equal(t, w.ID, raw[0].ID)
	require.NotNil(t, raw[0].DeletedAt)
	assert.Equal(t, f.clock.UnixMilli(), *raw[0].DeletedAt)
	assert.Equal(t, domain.SyncPending, raw[0].SyncStatus)

	assert.ErrorIs(t, f.repo.DeleteWorkout(ctx, w.ID), ErrNotFound)
	assert.ErrorIs(t, f.repo.DeleteWorkout(ctx, "missing"), ErrNotFound)
}

func TestConcurrentSavesKeepEveryRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.repo.SaveLog(ctx, domain.WorkoutLog{Name: fmt.Sprintf("log %d", i), Date: "2025-01-01"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.repo.GetHistory(ctx), 50)
}

func TestSaveLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.repo.SaveLog(ctx, domain.WorkoutLog{Name: "Morning", Duration: 1800})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", l.Date, "defaults to today")
	assert.Equal(t, domain.SyncPending, l.SyncStatus)

	_, err = f.repo.SaveLog(ctx, domain.WorkoutLog{Name: "Bad", Date: "tomorrow-ish"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.repo.SaveLog(ctx, domain.WorkoutLog{Name: "Bad", Duration: -5})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.repo.DeleteLog(ctx, l.ID))
	assert.Empty(t, f.repo.GetHistory(ctx))
}

func TestGetExerciseStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.SaveLog(ctx, domain.WorkoutLog{
		Name: "Push", Date: "2025-01-02",
		Exercises: []domain.ExerciseEntry{{
			Name: "Push Up",
			Logs: []domain.SetValues{
				{Weight: 0, Reps: 20},
				{Weight: 10, Reps: 15},
			},
		}},
	})
	require.NoError(t, err)

	st := f.repo.GetExerciseStats(ctx, "Push Up")
	assert.Equal(t, 150.0, st.TotalVolume)
	assert.Equal(t, 10.0, st.MaxWeight)
	assert.Equal(t, "2025-01-02", st.PRDate)

	perf, ok := f.repo.FetchLastPerformance(ctx, "", "Push Up")
	require.True(t, ok)
	assert.Equal(t, "Push", perf.WorkoutName)

	series := f.repo.ExerciseSeries(ctx, "", "Push Up", stats.MetricReps)
	require.Len(t, series, 1)
	assert.Equal(t, 20.0, series[0].Value)
}

func TestRoutines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rt, err := f.repo.SaveRoutine(ctx, domain.WorkoutRoutine{
		Name: "PPL",
		Sequence: []domain.RoutineDay{
			{Type: domain.RoutineDayWorkout, Name: "Push"},
			{Type: domain.RoutineDayRest},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rt.Sequence[0].ID)
	assert.Len(t, f.repo.GetRoutines(ctx), 1)

	_, err = f.repo.SaveRoutine(ctx, domain.WorkoutRoutine{
		Name:     "Broken",
		Sequence: []domain.RoutineDay{{Type: "nap"}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.repo.DeleteRoutine(ctx, rt.ID))
	assert.Empty(t, f.repo.GetRoutines(ctx))
}

func TestBodyWeight_HistoryAscending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, entry := range []struct {
		date   string
		weight float64
	}{{"2025-01-05", 82}, {"2025-01-01", 80}, {"2025-01-03", 81}} {
		_, err := f.repo.SaveBodyWeight(ctx, "u1", entry.weight, entry.date)
		require.NoError(t, err)
	}
	_, err := f.repo.SaveBodyWeight(ctx, "u2", 60, "2025-01-02")
	require.NoError(t, err)

	history := f.repo.GetBodyWeightHistory(ctx, "u1")
	require.Len(t, history, 3)
	assert.Equal(t, "2025-01-01", history[0].Date)
	assert.Equal(t, "2025-01-03", history[1].Date)
	assert.Equal(t, "2025-01-05", history[2].Date)
}

func TestBodyWeight_Latest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.repo.GetLatestBodyWeight(ctx, "u1")
	assert.False(t, ok)

	_, err := f.repo.SaveBodyWeight(ctx, "u1", 145, "2025-01-01")
	require.NoError(t, err)
	_, err = f.repo.SaveBodyWeight(ctx, "u1", 140, "2024-12-31")
	require.NoError(t, err)

	latest, ok := f.repo.GetLatestBodyWeight(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, 145.0, latest)
}

func TestBodyWeight_UniquePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.repo.SaveBodyWeight(ctx, "u1", 80, "2025-01-01T07:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", first.Date)

	second, err := f.repo.SaveBodyWeight(ctx, "u1", 79.5, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	history := f.repo.GetBodyWeightHistory(ctx, "u1")
	require.Len(t, history, 1)
	assert.Equal(t, 79.5, history[0].Weight)

	// Re-adding a deleted day revives the same record
	require.NoError(t, f.repo.DeleteBodyWeight(ctx, first.ID))
	assert.Empty(t, f.repo.GetBodyWeightHistory(ctx, "u1"))
	revived, err := f.repo.SaveBodyWeight(ctx, "u1", 78, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, revived.ID)
	assert.Nil(t, revived.DeletedAt)
}

func TestBodyWeight_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.SaveBodyWeight(ctx, "", 80, "2025-01-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.repo.SaveBodyWeight(ctx, "u1", 0, "2025-01-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.repo.SaveBodyWeight(ctx, "u1", 80, "13/13/2025")
	assert.ErrorIs(t, err, ErrValidation)

	m, err := f.repo.SaveBodyWeight(ctx, "u1", 80, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", m.Date)
}

func TestWeightHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.SaveBodyWeight(ctx, "u1", 80, "2025-01-10")
	require.NoError(t, err)

	chart := f.repo.WeightHistory(ctx, "u1", stats.RangeWeek)
	require.Len(t, chart.Buckets, 7)
	require.NotNil(t, chart.Buckets[6].Value)
	assert.Equal(t, 80.0, *chart.Buckets[6].Value)
}

func TestAdoptGuestMeasurements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.SaveBodyWeight(ctx, domain.GuestUserID, 70, "2025-01-01")
	require.NoError(t, err)
	_, err = f.repo.SaveBodyWeight(ctx, domain.GuestUserID, 71, "2025-01-02")
	require.NoError(t, err)
	_, err = f.repo.SaveBodyWeight(ctx, "u1", 90, "2025-01-02")
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.AdoptGuestMeasurements(ctx, "u1"))

	history := f.repo.GetBodyWeightHistory(ctx, "u1")
	require.Len(t, history, 2)
	assert.Equal(t, 70.0, history[0].Weight)
	assert.Equal(t, 90.0, history[1].Weight, "the user's own entry wins")
	assert.Empty(t, f.repo.GetBodyWeightHistory(ctx, domain.GuestUserID))
}

func TestGuestMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.repo.IsGuestMode(ctx))
	f.repo.SetGuestMode(ctx, true)
	assert.True(t, f.repo.IsGuestMode(ctx))

	raw, err := f.kv.Get(ctx, storage.GuestModeKey)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))
}

func TestGetDefaultExercises(t *testing.T) {
	f := newFixture(t)
	exercises := f.repo.GetDefaultExercises()
	require.NotEmpty(t, exercises)

	byID := make(map[string]domain.Exercise)
	for _, e := range exercises {
		byID[e.ID] = e
	}
	bench := byID["ex-bench-press"]
	assert.Equal(t, "Chest", bench.Category)
	assert.Equal(t, []domain.ExerciseProperty{domain.PropertyWeighted, domain.PropertyReps}, bench.Properties)
	assert.Equal(t, "General", byID["ex-rowing-machine"].Category)
}

func TestCorruptCollectionReadsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, storage.WorkoutsKey, []byte(`{"not":"an array"}`)))

	assert.Empty(t, f.repo.GetWorkouts(ctx))
	_, err := f.repo.SaveWorkout(ctx, domain.SavedWorkout{Name: "Fresh"})
	require.NoError(t, err)
	assert.Len(t, f.repo.GetWorkouts(ctx), 1)
}
