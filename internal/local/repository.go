// Package local is the offline-first repository. Every mutation succeeds locally,
// is stamped pending, and waits for the sync engine to reach the remote store.
package local

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/stats"
	"alcyxob/myhealth/internal/storage"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
)

func validationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

type (
	WorkoutCollection     = Collection[domain.SavedWorkout, *domain.SavedWorkout]
	RoutineCollection     = Collection[domain.WorkoutRoutine, *domain.WorkoutRoutine]
	HistoryCollection     = Collection[domain.WorkoutLog, *domain.WorkoutLog]
	MeasurementCollection = Collection[domain.BodyMeasurement, *domain.BodyMeasurement]
)

// Repository owns the locally stored workouts, routines, history and body measurements.
type Repository struct {
	store        *storage.Storage
	workouts     *WorkoutCollection
	routines     *RoutineCollection
	history      *HistoryCollection
	measurements *MeasurementCollection

	now   func() time.Time
	newID func() string
}

type Option func(*Repository)

// WithClock replaces the wall clock used to stamp mutations.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator replaces the UUID v4 generator for new records.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

func New(store *storage.Storage, opts ...Option) *Repository {
	r := &Repository{
		store:        store,
		workouts:     newCollection[domain.SavedWorkout](store, storage.WorkoutsKey),
		routines:     newCollection[domain.WorkoutRoutine](store, storage.RoutinesKey),
		history:      newCollection[domain.WorkoutLog](store, storage.HistoryKey),
		measurements: newCollection[domain.BodyMeasurement](store, storage.MeasurementsKey),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collections used by the sync engine.

func (r *Repository) Workouts() *WorkoutCollection         { return r.workouts }
func (r *Repository) Routines() *RoutineCollection         { return r.routines }
func (r *Repository) History() *HistoryCollection          { return r.history }
func (r *Repository) Measurements() *MeasurementCollection { return r.measurements }

// Now is the repository clock.
func (r *Repository) Now() time.Time {
	return r.now()
}

// --- Workouts ---

func (r *Repository) GetWorkouts(ctx context.Context) []domain.SavedWorkout {
	return r.workouts.Live(ctx)
}

func (r *Repository) SaveWorkout(ctx context.Context, w domain.SavedWorkout) (domain.SavedWorkout, error) {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return domain.SavedWorkout{}, validationError("name", "is required")
	}
	if w.Exercises == nil {
		w.Exercises = make([]domain.ExerciseEntry, 0)
	}
	now := r.now()
	if w.CreatedAt == "" {
		w.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	return r.workouts.save(ctx, w, now, r.newID, func(stored, incoming *domain.SavedWorkout) {
		incoming.CreatedAt = stored.CreatedAt
	}), nil
}

func (r *Repository) DeleteWorkout(ctx context.Context, id string) error {
	return r.workouts.softDelete(ctx, id, r.now())
}

// --- Routines ---

func (r *Repository) GetRoutines(ctx context.Context) []domain.WorkoutRoutine {
	return r.routines.Live(ctx)
}

func (r *Repository) SaveRoutine(ctx context.Context, rt domain.WorkoutRoutine) (domain.WorkoutRoutine, error) {
	rt.Name = strings.TrimSpace(rt.Name)
	if rt.Name == "" {
		return domain.WorkoutRoutine{}, validationError("name", "is required")
	}
	for i, day := range rt.Sequence {
		if day.Type != domain.RoutineDayWorkout && day.Type != domain.RoutineDayRest {
			return domain.WorkoutRoutine{}, validationError(fmt.Sprintf("sequence[%d].type", i), "must be workout or rest")
		}
		if day.ID == "" {
			rt.Sequence[i].ID = r.newID()
		}
	}
	if rt.Sequence == nil {
		rt.Sequence = make([]domain.RoutineDay, 0)
	}
	now := r.now()
	if rt.CreatedAt == "" {
		rt.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	return r.routines.save(ctx, rt, now, r.newID, func(stored, incoming *domain.WorkoutRoutine) {
		incoming.CreatedAt = stored.CreatedAt
	}), nil
}

func (r *Repository) DeleteRoutine(ctx context.Context, id string) error {
	return r.routines.softDelete(ctx, id, r.now())
}

// --- History ---

// GetHistory returns the live workout logs, newest saved first.
func (r *Repository) GetHistory(ctx context.Context) []domain.WorkoutLog {
	return r.history.Live(ctx)
}

// SaveLog records a completed workout. The date defaults to today.
func (r *Repository) SaveLog(ctx context.Context, l domain.WorkoutLog) (domain.WorkoutLog, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return domain.WorkoutLog{}, validationError("name", "is required")
	}
	if l.Duration < 0 {
		return domain.WorkoutLog{}, validationError("duration", "must not be negative")
	}
	now := r.now()
	if strings.TrimSpace(l.Date) == "" {
		l.Date = domain.FormatDay(now)
	} else if _, err := domain.ParseDay(l.Date); err != nil {
		return domain.WorkoutLog{}, validationError("date", err.Error())
	}
	if l.Exercises == nil {
		l.Exercises = make([]domain.ExerciseEntry, 0)
	}
	return r.history.save(ctx, l, now, r.newID, nil), nil
}

func (r *Repository) DeleteLog(ctx context.Context, id string) error {
	return r.history.softDelete(ctx, id, r.now())
}

// --- Stats ---

func (r *Repository) GetExerciseStats(ctx context.Context, name string) stats.ExerciseStats {
	return stats.ComputeExerciseStats(r.GetHistory(ctx), name)
}

// ExerciseSeries plots metric per day for the exercise matched by id or name.
func (r *Repository) ExerciseSeries(ctx context.Context, exerciseID, name string, metric stats.Metric) []stats.ChartPoint {
	return stats.ExerciseSeries(r.GetHistory(ctx), exerciseID, name, metric)
}

// FetchLastPerformance returns the newest logged session of the exercise.
func (r *Repository) FetchLastPerformance(ctx context.Context, exerciseID, name string) (stats.Performance, bool) {
	return stats.LastPerformance(r.GetHistory(ctx), exerciseID, name)
}

// --- Exercise catalog ---

//go:embed default_exercises.json
var defaultExercisesJSON []byte

type catalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	MuscleGroup string `json:"muscle_group"`
}

// GetDefaultExercises returns the built-in exercise catalog.
func (r *Repository) GetDefaultExercises() []domain.Exercise {
	var entries []catalogEntry
	if err := json.Unmarshal(defaultExercisesJSON, &entries); err != nil {
		log.Printf("ERROR: Failed to decode default exercises: %v", err)
		return []domain.Exercise{}
	}
	exercises := make([]domain.Exercise, 0, len(entries))
	for _, e := range entries {
		category := e.MuscleGroup
		if category == "" {
			category = "General"
		}
		exercises = append(exercises, domain.Exercise{
			ID:         e.ID,
			Name:       e.Name,
			Category:   category,
			Properties: domain.ParseProperties(e.Type),
			RawType:    e.Type,
		})
	}
	return exercises
}

// --- Body measurements ---

func (r *Repository) measurementsOf(ctx context.Context, userID string) []domain.BodyMeasurement {
	all := r.measurements.Live(ctx)
	out := make([]domain.BodyMeasurement, 0, len(all))
	for _, m := range all {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

// GetBodyWeightHistory returns the user's measurements by ascending date.
func (r *Repository) GetBodyWeightHistory(ctx context.Context, userID string) []domain.BodyMeasurement {
	ms := r.measurementsOf(ctx, userID)
	stats.SortByDate(ms)
	return ms
}

// GetLatestBodyWeight returns the weight of the user's most recent measurement.
func (r *Repository) GetLatestBodyWeight(ctx context.Context, userID string) (float64, bool) {
	latest, ok := stats.Latest(r.measurementsOf(ctx, userID))
	if !ok {
		return 0, false
	}
	return latest.Weight, true
}

// SaveBodyWeight records the user's weight for a day. An existing entry for the same
// (user, date) is updated instead of adding a second one.
func (r *Repository) SaveBodyWeight(ctx context.Context, userID string, weight float64, date string) (domain.BodyMeasurement, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.BodyMeasurement{}, validationError("userId", "is required")
	}
	if weight <= 0 {
		return domain.BodyMeasurement{}, validationError("weight", "must be positive")
	}
	now := r.now()
	day := domain.Day(now)
	if strings.TrimSpace(date) != "" {
		parsed, err := domain.ParseDay(date)
		if err != nil {
			return domain.BodyMeasurement{}, validationError("date", err.Error())
		}
		day = parsed
	}
	iso := domain.FormatDay(day)

	var saved domain.BodyMeasurement
	_ = r.measurements.mutate(ctx, func(items []domain.BodyMeasurement) ([]domain.BodyMeasurement, bool, error) {
		for i := range items {
			if items[i].UserID == userID && items[i].Date == iso {
				items[i].Weight = weight
				items[i].DeletedAt = nil
				items[i].Touch(now)
				saved = items[i]
				return items, true, nil
			}
		}
		saved = domain.BodyMeasurement{
			Syncable: domain.Syncable{ID: r.newID()},
			UserID:   userID,
			Weight:   weight,
			Date:     iso,
		}
		saved.Touch(now)
		return append([]domain.BodyMeasurement{saved}, items...), true, nil
	})
	return saved, nil
}

func (r *Repository) DeleteBodyWeight(ctx context.Context, id string) error {
	return r.measurements.softDelete(ctx, id, r.now())
}

// WeightHistory builds the body weight chart of the user for rng, ending today.
func (r *Repository) WeightHistory(ctx context.Context, userID string, rng stats.Range) stats.WeightChart {
	return stats.WeightSpine(rng, r.measurementsOf(ctx, userID), r.now())
}

// AdoptGuestMeasurements moves guest measurements to userID after sign-in so they
// are pushed for that user. Dates the user already has keep the user's entry.
func (r *Repository) AdoptGuestMeasurements(ctx context.Context, userID string) int {
	if userID == "" || userID == domain.GuestUserID {
		return 0
	}
	adopted := 0
	now := r.now()
	_ = r.measurements.mutate(ctx, func(items []domain.BodyMeasurement) ([]domain.BodyMeasurement, bool, error) {
		owned := make(map[string]bool)
		for _, m := range items {
			if m.UserID == userID && !m.IsDeleted() {
				owned[m.Date] = true
			}
		}
		out := items[:0]
		for _, m := range items {
			if m.UserID == domain.GuestUserID {
				if owned[m.Date] || m.IsDeleted() {
					continue
				}
				m.UserID = userID
				m.Touch(now)
				adopted++
			}
			out = append(out, m)
		}
		return out, adopted > 0 || len(out) != len(items), nil
	})
	return adopted
}

// --- Guest mode ---

func (r *Repository) IsGuestMode(ctx context.Context) bool {
	var guest bool
	if !r.store.GetItem(ctx, storage.GuestModeKey, &guest) {
		return false
	}
	return guest
}

func (r *Repository) SetGuestMode(ctx context.Context, guest bool) {
	r.store.SetItem(ctx, storage.GuestModeKey, guest)
}
