package syncer

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/repository"
	"context"
	"log"
)

// pullCollection fetches the remote rows of one collection, parses them and merges
// them into the records of c selected by scope (all of them when nil). Rows that
// cannot be parsed are logged and skipped. A failed fetch leaves c untouched.
func pullCollection[R any, T any, PT local.RecordPtr[T]](
	ctx context.Context,
	c *local.Collection[T, PT],
	name string,
	fetch func(ctx context.Context) ([]R, error),
	parse func(R) (T, error),
	scope func(T) bool,
	report *Report,
) {
	rows, err := fetch(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to pull %s: %v", name, err)
		return
	}

	records := make([]T, 0, len(rows))
	for _, row := range rows {
		record, err := parse(row)
		if err != nil {
			log.Printf("WARN: Skipping remote %s row: %v", name, err)
			report.Malformed++
			continue
		}
		records = append(records, record)
	}

	report.Pulled += c.MergePulledWhere(ctx, records, scope)
}

func (e *Engine) pull(ctx context.Context, user domain.Identity, report *Report) {
	if ctx.Err() != nil {
		log.Printf("WARN: Pull skipped: %v", ctx.Err())
		return
	}
	pullCollection(ctx, e.repo.History(), "workout log",
		func(ctx context.Context) ([]repository.LogRow, error) { return e.gateway.FetchLogs(ctx, user) },
		repository.ParseLogRow, nil, report)
	pullCollection(ctx, e.repo.Workouts(), "workout",
		func(ctx context.Context) ([]repository.WorkoutRow, error) { return e.gateway.FetchWorkouts(ctx, user) },
		repository.ParseWorkoutRow, nil, report)
	pullCollection(ctx, e.repo.Routines(), "routine",
		func(ctx context.Context) ([]repository.RoutineRow, error) { return e.gateway.FetchRoutines(ctx, user) },
		repository.ParseRoutineRow, nil, report)
	pullCollection(ctx, e.repo.Measurements(), "body measurement",
		func(ctx context.Context) ([]repository.MeasurementRow, error) { return e.gateway.FetchMeasurements(ctx, user) },
		repository.ParseMeasurementRow,
		// Measurements of other users on this device stay until they sync themselves
		func(m domain.BodyMeasurement) bool { return m.UserID == user.UserID },
		report)
}
