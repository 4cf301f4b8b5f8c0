// internal/domain/routine.go
package domain

// RoutineDayType distinguishes training days from rest days in a routine sequence.
type RoutineDayType string

const (
	RoutineDayWorkout RoutineDayType = "workout"
	RoutineDayRest    RoutineDayType = "rest"
)

// RoutineDay is one step of a routine sequence.
type RoutineDay struct {
	ID        string          `json:"id,omitempty"`
	Type      RoutineDayType  `json:"type"`
	Name      string          `json:"name,omitempty"`
	WorkoutID string          `json:"workoutId,omitempty"` // Saved workout this day was built from
	Exercises []ExerciseEntry `json:"exercises,omitempty"`
}

// WorkoutRoutine is an ordered plan of workout and rest days.
type WorkoutRoutine struct {
	Syncable
	Name      string       `json:"name"`
	Sequence  []RoutineDay `json:"sequence"`
	CreatedAt string       `json:"createdAt,omitempty"`
}
