package repository

import (
	"alcyxob/myhealth/internal/domain"
	"encoding/json"
	"strings"
	"time"
)

// Remote rows mirror the backend tables. Exercise lists travel as JSON text.

// WorkoutRow is a saved workout as stored remotely.
type WorkoutRow struct {
	ID        string     `bson:"_id,omitempty" json:"workout_id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Name      string     `bson:"workout_name" json:"workout_name"`
	Notes     string     `bson:"notes" json:"notes"` // JSON-encoded []ExerciseEntry
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at" json:"deleted_at,omitempty"`
}

// LogRow is a completed workout as stored remotely.
type LogRow struct {
	ID          string     `bson:"_id,omitempty" json:"workout_log_id"`
	UserID      string     `bson:"user_id" json:"user_id"`
	Name        string     `bson:"workout_name" json:"workout_name"`
	WorkoutTime string     `bson:"workout_time" json:"workout_time"` // ISO date
	Duration    int        `bson:"duration" json:"duration"`
	Note        string     `bson:"note" json:"note"`
	Exercises   string     `bson:"exercises" json:"exercises"` // JSON-encoded []ExerciseEntry
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `bson:"deleted_at" json:"deleted_at,omitempty"`
}

// RoutineRow is a routine as stored remotely.
type RoutineRow struct {
	ID        string     `bson:"_id,omitempty" json:"routine_id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Name      string     `bson:"routine_name" json:"routine_name"`
	Sequence  string     `bson:"sequence" json:"sequence"` // JSON-encoded []RoutineDay
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at" json:"deleted_at,omitempty"`
}

// MeasurementRow is a body weight entry as stored remotely.
type MeasurementRow struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Weight    float64    `bson:"weight" json:"weight"`
	Date      string     `bson:"date" json:"date"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at" json:"deleted_at,omitempty"`
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// syncedState builds the sync fields of a freshly pulled record.
func syncedState(id string, createdAt, updatedAt time.Time, deletedAt *time.Time) domain.Syncable {
	ts := millis(updatedAt)
	if ts == 0 {
		ts = millis(createdAt)
	}
	s := domain.Syncable{ID: id, SyncStatus: domain.SyncSynced, UpdatedAt: ts, SyncedAt: &ts}
	if deletedAt != nil {
		del := millis(*deletedAt)
		s.DeletedAt = &del
	}
	return s
}

func decodeEntries(collection, field, raw string) ([]domain.ExerciseEntry, error) {
	entries := make([]domain.ExerciseEntry, 0)
	if strings.TrimSpace(raw) == "" {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &MalformedRowError{Collection: collection, Field: field, Reason: err.Error()}
	}
	if entries == nil {
		entries = make([]domain.ExerciseEntry, 0)
	}
	return entries, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseWorkoutRow converts a remote workout row into a synced local workout.
func ParseWorkoutRow(row WorkoutRow) (domain.SavedWorkout, error) {
	if row.ID == "" {
		return domain.SavedWorkout{}, &MalformedRowError{Collection: "workouts", Field: "workout_id", Reason: "missing"}
	}
	if strings.TrimSpace(row.Name) == "" {
		return domain.SavedWorkout{}, &MalformedRowError{Collection: "workouts", Field: "workout_name", Reason: "missing"}
	}
	exercises, err := decodeEntries("workouts", "notes", row.Notes)
	if err != nil {
		return domain.SavedWorkout{}, err
	}
	w := domain.SavedWorkout{
		Syncable:  syncedState(row.ID, row.CreatedAt, row.UpdatedAt, row.DeletedAt),
		Name:      row.Name,
		Exercises: exercises,
	}
	if !row.CreatedAt.IsZero() {
		w.CreatedAt = row.CreatedAt.UTC().Format(time.RFC3339)
	}
	return w, nil
}

// ParseLogRow converts a remote log row into a synced local workout log.
func ParseLogRow(row LogRow) (domain.WorkoutLog, error) {
	if row.ID == "" {
		return domain.WorkoutLog{}, &MalformedRowError{Collection: "workout_logs", Field: "workout_log_id", Reason: "missing"}
	}
	if _, err := domain.ParseDay(row.WorkoutTime); err != nil {
		return domain.WorkoutLog{}, &MalformedRowError{Collection: "workout_logs", Field: "workout_time", Reason: err.Error()}
	}
	if row.Duration < 0 {
		return domain.WorkoutLog{}, &MalformedRowError{Collection: "workout_logs", Field: "duration", Reason: "negative"}
	}
	exercises, err := decodeEntries("workout_logs", "exercises", row.Exercises)
	if err != nil {
		return domain.WorkoutLog{}, err
	}
	return domain.WorkoutLog{
		Syncable:  syncedState(row.ID, row.CreatedAt, row.UpdatedAt, row.DeletedAt),
		Name:      row.Name,
		Date:      row.WorkoutTime,
		Duration:  row.Duration,
		Note:      row.Note,
		Exercises: exercises,
	}, nil
}

// ParseRoutineRow converts a remote routine row into a synced local routine.
func ParseRoutineRow(row RoutineRow) (domain.WorkoutRoutine, error) {
	if row.ID == "" {
		return domain.WorkoutRoutine{}, &MalformedRowError{Collection: "routines", Field: "routine_id", Reason: "missing"}
	}
	sequence := make([]domain.RoutineDay, 0)
	if strings.TrimSpace(row.Sequence) != "" {
		if err := json.Unmarshal([]byte(row.Sequence), &sequence); err != nil {
			return domain.WorkoutRoutine{}, &MalformedRowError{Collection: "routines", Field: "sequence", Reason: err.Error()}
		}
	}
	r := domain.WorkoutRoutine{
		Syncable: syncedState(row.ID, row.CreatedAt, row.UpdatedAt, row.DeletedAt),
		Name:     row.Name,
		Sequence: sequence,
	}
	if r.Sequence == nil {
		r.Sequence = make([]domain.RoutineDay, 0)
	}
	if !row.CreatedAt.IsZero() {
		r.CreatedAt = row.CreatedAt.UTC().Format(time.RFC3339)
	}
	return r, nil
}

// ParseMeasurementRow converts a remote measurement row into a synced local measurement.
// The date is normalized to an ISO date.
func ParseMeasurementRow(row MeasurementRow) (domain.BodyMeasurement, error) {
	if row.ID == "" {
		return domain.BodyMeasurement{}, &MalformedRowError{Collection: "body_measurements", Field: "id", Reason: "missing"}
	}
	if row.UserID == "" {
		return domain.BodyMeasurement{}, &MalformedRowError{Collection: "body_measurements", Field: "user_id", Reason: "missing"}
	}
	if row.Weight <= 0 {
		return domain.BodyMeasurement{}, &MalformedRowError{Collection: "body_measurements", Field: "weight", Reason: "not positive"}
	}
	day, err := domain.ParseDay(row.Date)
	if err != nil {
		return domain.BodyMeasurement{}, &MalformedRowError{Collection: "body_measurements", Field: "date", Reason: err.Error()}
	}
	return domain.BodyMeasurement{
		Syncable: syncedState(row.ID, time.Time{}, row.UpdatedAt, row.DeletedAt),
		UserID:   row.UserID,
		Weight:   row.Weight,
		Date:     domain.FormatDay(day),
	}, nil
}

// NewWorkoutRow builds the insert row for a local workout.
func NewWorkoutRow(user domain.Identity, w domain.SavedWorkout) (WorkoutRow, error) {
	notes, err := encodeJSON(nonNilEntries(w.Exercises))
	if err != nil {
		return WorkoutRow{}, err
	}
	updated := fromMillis(w.UpdatedAt)
	created := updated
	if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
		created = t.UTC()
	}
	return WorkoutRow{
		UserID:    user.UserID,
		Name:      w.Name,
		Notes:     notes,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// WorkoutPatch builds the full update of a local workout.
func WorkoutPatch(w domain.SavedWorkout) (Patch, error) {
	notes, err := encodeJSON(nonNilEntries(w.Exercises))
	if err != nil {
		return nil, err
	}
	return Patch{
		"workout_name": w.Name,
		"notes":        notes,
		"updated_at":   fromMillis(w.UpdatedAt),
	}, nil
}

// NewLogRow builds the insert row for a local workout log.
func NewLogRow(user domain.Identity, l domain.WorkoutLog) (LogRow, error) {
	exercises, err := encodeJSON(nonNilEntries(l.Exercises))
	if err != nil {
		return LogRow{}, err
	}
	updated := fromMillis(l.UpdatedAt)
	return LogRow{
		UserID:      user.UserID,
		Name:        l.Name,
		WorkoutTime: l.Date,
		Duration:    l.Duration,
		Note:        l.Note,
		Exercises:   exercises,
		CreatedAt:   updated,
		UpdatedAt:   updated,
	}, nil
}

// LogPatch builds the full update of a local workout log.
func LogPatch(l domain.WorkoutLog) (Patch, error) {
	exercises, err := encodeJSON(nonNilEntries(l.Exercises))
	if err != nil {
		return nil, err
	}
	return Patch{
		"workout_name": l.Name,
		"workout_time": l.Date,
		"duration":     l.Duration,
		"note":         l.Note,
		"exercises":    exercises,
		"updated_at":   fromMillis(l.UpdatedAt),
	}, nil
}

// NewMeasurementRow builds the upsert row for a local measurement.
// The row is always owned by the authenticated user, whatever the local owner id.
func NewMeasurementRow(user domain.Identity, m domain.BodyMeasurement) MeasurementRow {
	return MeasurementRow{
		UserID:    user.UserID,
		Weight:    m.Weight,
		Date:      m.Date,
		UpdatedAt: fromMillis(m.UpdatedAt),
	}
}

// DeletionPatch marks a remote row as deleted at the given epoch millis.
func DeletionPatch(deletedAt int64) Patch {
	ts := fromMillis(deletedAt)
	return Patch{"deleted_at": ts, "updated_at": ts}
}

// NewRoutinePayload builds the body for create-routine (withID false) or update-routine.
func NewRoutinePayload(user domain.Identity, r domain.WorkoutRoutine, withID bool) RoutinePayload {
	p := RoutinePayload{
		RoutineName: strings.TrimSpace(r.Name),
		Exercises:   r.Sequence,
		UserID:      user.UserID,
	}
	if p.Exercises == nil {
		p.Exercises = make([]domain.RoutineDay, 0)
	}
	if withID {
		p.RoutineID = r.ID
	}
	return p
}

func nonNilEntries(entries []domain.ExerciseEntry) []domain.ExerciseEntry {
	if entries == nil {
		return make([]domain.ExerciseEntry, 0)
	}
	return entries
}
