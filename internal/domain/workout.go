package domain

// SavedWorkout is a reusable workout template created by the user.
type SavedWorkout struct {
	Syncable
	Name      string          `json:"name"`
	Exercises []ExerciseEntry `json:"exercises"`
	CreatedAt string          `json:"createdAt,omitempty"` // RFC 3339 timestamp
}

// WorkoutLog is a completed workout session (a history entry).
type WorkoutLog struct {
	Syncable
	Name      string          `json:"name"`
	Date      string          `json:"date"`     // ISO date, may carry a time part
	Duration  int             `json:"duration"` // seconds
	Note      string          `json:"note,omitempty"`
	Exercises []ExerciseEntry `json:"exercises"`
}
