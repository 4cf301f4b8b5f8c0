// internal/domain/exercise.go
package domain

import "strings"

// ExerciseProperty is a capability tag of an exercise. It determines which input
// fields a set row exposes.
type ExerciseProperty string

const (
	PropertyBodyweight ExerciseProperty = "bodyweight"
	PropertyWeighted   ExerciseProperty = "weighted"
	PropertyReps       ExerciseProperty = "reps"
	PropertyDuration   ExerciseProperty = "duration"
	PropertyDistance   ExerciseProperty = "distance"
)

// ExerciseEntry is one exercise inside a saved workout or a workout log.
type ExerciseEntry struct {
	ID         string             `json:"id,omitempty"` // Optional link to the exercise catalog
	Name       string             `json:"name"`
	Sets       int                `json:"sets"` // Target set count
	Reps       int                `json:"reps"` // Default target reps
	Properties []ExerciseProperty `json:"properties,omitempty"`
	SetTargets []SetValues        `json:"setTargets,omitempty"`
	Logs       []SetValues        `json:"logs,omitempty"` // Present once sets are completed
}

// HasProperty reports whether the entry carries the given capability tag.
func (e *ExerciseEntry) HasProperty(p ExerciseProperty) bool {
	for _, have := range e.Properties {
		if have == p {
			return true
		}
	}
	return false
}

// Matches reports whether the entry refers to the exercise identified by id or name.
// Empty keys never match.
func (e *ExerciseEntry) Matches(id, name string) bool {
	if id != "" && e.ID == id {
		return true
	}
	return name != "" && e.Name == name
}

// Exercise represents a single exercise definition in the catalog.
type Exercise struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Category   string             `json:"category"` // Primary muscle group, "General" when unknown
	Properties []ExerciseProperty `json:"properties"`
	RawType    string             `json:"rawType,omitempty"`
}

// ParseProperties splits a comma-separated type string ("weighted, reps") into
// de-duplicated capability tags. Empty segments are dropped.
func ParseProperties(raw string) []ExerciseProperty {
	props := make([]ExerciseProperty, 0, 2)
	seen := make(map[ExerciseProperty]bool)
	for _, part := range strings.Split(raw, ",") {
		p := ExerciseProperty(strings.ToLower(strings.TrimSpace(part)))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		props = append(props, p)
	}
	return props
}
