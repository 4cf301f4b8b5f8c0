package syncer

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeGateway is an in-memory remote store. Rows are kept in insertion order so
// fetches are deterministic.
type fakeGateway struct {
	mu  sync.Mutex
	seq int

	workouts     []repository.WorkoutRow
	logs         []repository.LogRow
	routines     []repository.RoutineRow
	measurements []repository.MeasurementRow

	// writes counts every call that changes remote state.
	writes int
	// fail makes the named method return the error.
	fail map[string]error
	// extraLogs are returned by FetchLogs on top of the stored rows.
	extraLogs []repository.LogRow
	// beforeFetchLogs runs at the start of FetchLogs, outside the lock.
	beforeFetchLogs func()
	// afterInsertWorkout runs once a workout row is stored, outside the lock.
	afterInsertWorkout func(row repository.WorkoutRow)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{fail: make(map[string]error)}
}

func (g *fakeGateway) nextID() string {
	g.seq++
	return fmt.Sprintf("srv-%d", g.seq)
}

func (g *fakeGateway) failure(method string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fail[method]
}

func (g *fakeGateway) setFailure(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, method)
		return
	}
	g.fail[method] = err
}

func (g *fakeGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

func applyTimes(patch repository.Patch, updated *time.Time, deleted **time.Time) {
	if v, ok := patch["updated_at"].(time.Time); ok {
		*updated = v
	}
	if v, ok := patch["deleted_at"].(time.Time); ok {
		*deleted = &v
	}
}

func live[T any](rows []T, user domain.Identity, owner func(T) (string, *time.Time)) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if uid, del := owner(r); uid == user.UserID && del == nil {
			out = append(out, r)
		}
	}
	return out
}

func (g *fakeGateway) FetchWorkouts(ctx context.Context, user domain.Identity) ([]repository.WorkoutRow, error) {
	if err := g.failure("FetchWorkouts"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return live(g.workouts, user, func(r repository.WorkoutRow) (string, *time.Time) { return r.UserID, r.DeletedAt }), nil
}

func (g *fakeGateway) InsertWorkout(ctx context.Context, user domain.Identity, row repository.WorkoutRow) (repository.WorkoutRow, error) {
	if err := g.failure("InsertWorkout"); err != nil {
		return repository.WorkoutRow{}, err
	}
	g.mu.Lock()
	g.writes++
	row.ID = g.nextID()
	row.UserID = user.UserID
	g.workouts = append(g.workouts, row)
	g.mu.Unlock()

	if g.afterInsertWorkout != nil {
		g.afterInsertWorkout(row)
	}
	return row, nil
}

func (g *fakeGateway) UpdateWorkout(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	if err := g.failure("UpdateWorkout"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++
	for i := range g.workouts {
		r := &g.workouts[i]
		if r.ID != id || r.UserID != user.UserID || r.DeletedAt != nil {
			continue
		}
		if v, ok := patch["workout_name"].(string); ok {
			r.Name = v
		}
		if v, ok := patch["notes"].(string); ok {
			r.Notes = v
		}
		applyTimes(patch, &r.UpdatedAt, &r.DeletedAt)
		return nil
	}
	return repository.ErrNotFound
}

func (g *fakeGateway) FetchLogs(ctx context.Context, user domain.Identity) ([]repository.LogRow, error) {
	if g.beforeFetchLogs != nil {
		g.beforeFetchLogs()
	}
	if err := g.failure("FetchLogs"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	rows := live(g.logs, user, func(r repository.LogRow) (string, *time.Time) { return r.UserID, r.DeletedAt })
	return append(rows, g.extraLogs...), nil
}

func (g *fakeGateway) InsertLog(ctx context.Context, user domain.Identity, row repository.LogRow) (repository.LogRow, error) {
	if err := g.failure("InsertLog"); err != nil {
		return repository.LogRow{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++
	row.ID = g.nextID()
	row.UserID = user.UserID
	g.logs = append(g.logs, row)
	return row, nil
}

func (g *fakeGateway) UpdateLog(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	if err := g.failure("UpdateLog"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++
	for i := range g.logs {
		r := &g.logs[i]
		if r.ID != id || r.UserID != user.UserID || r.DeletedAt != nil {
			continue
		}
		if v, ok := patch["workout_name"].(string); ok {
			r.Name = v
		}
		if v, ok := patch["note"].(string); ok {
			r.Note = v
		}
		if v, ok := patch["exercises"].(string); ok {
			r.Exercises = v
		}
		applyTimes(patch, &r.UpdatedAt, &r.DeletedAt)
		return nil
	}
	return repository.ErrNotFound
}

func (g *fakeGateway) FetchMeasurements(ctx context.Context, user domain.Identity) ([]repository.MeasurementRow, error) {
	if err := g.failure("FetchMeasurements"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return live(g.measurements, user, func(r repository.MeasurementRow) (string, *time.Time) { return r.UserID, r.DeletedAt }), nil
}

func (g *fakeGateway) UpsertMeasurement(ctx context.Context, user domain.Identity, row repository.MeasurementRow) (repository.MeasurementRow, error) {
	if err := g.failure("UpsertMeasurement"); err != nil {
		return repository.MeasurementRow{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++
	for i := range g.measurements {
		r := &g.measurements[i]
		if r.UserID == user.UserID && r.Date == row.Date {
			r.Weight = row.Weight
			r.UpdatedAt = row.UpdatedAt
			r.DeletedAt = nil
			return *r, nil
		}
	}
	row.ID = g.nextID()
	row.UserID = user.UserID
	g.measurements = append(g.measurements, row)
	return row, nil
}

func (g *fakeGateway) UpdateMeasurement(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	if err := g.failure("UpdateMeasurement"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++
	for i := range g.measurements {
		r := &g.measurements[i]
		if r.ID == id && r.UserID == user.UserID && r.DeletedAt == nil {
			applyTimes(patch, &r.UpdatedAt, &r.DeletedAt)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (g *fakeGateway) FetchRoutines(ctx context.Context, user domain.Identity) ([]repository.RoutineRow, error) {
	if err := g.failure("FetchRoutines"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return live(g.routines, user, func(r repository.RoutineRow) (string, *time.Time) { return r.UserID, r.DeletedAt }), nil
}

func (g *fakeGateway) Invoke(ctx context.Context, user domain.Identity, name string, payload any) (json.RawMessage, error) {
	if err := g.failure(name); err != nil {
		return nil, err
	}
	p, ok := payload.(repository.RoutinePayload)
	if !ok {
		return nil, errors.New("unexpected payload")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes++

	sequence, _ := json.Marshal(p.Exercises)
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	switch name {
	case repository.ProcCreateRoutine:
		row := repository.RoutineRow{
			ID: g.nextID(), UserID: user.UserID, Name: p.RoutineName,
			Sequence: string(sequence), CreatedAt: now, UpdatedAt: now,
		}
		g.routines = append(g.routines, row)
		return repository.ProcedureResult(row, nil)
	case repository.ProcUpdateRoutine, repository.ProcDeleteRoutine:
		for i := range g.routines {
			r := &g.routines[i]
			if r.ID != p.RoutineID || r.UserID != user.UserID || r.DeletedAt != nil {
				continue
			}
			if name == repository.ProcDeleteRoutine {
				r.DeletedAt = &now
				return repository.ProcedureResult(map[string]string{"routine_id": r.ID}, nil)
			}
			r.Name = p.RoutineName
			r.Sequence = string(sequence)
			return repository.ProcedureResult(*r, nil)
		}
		if name == repository.ProcDeleteRoutine {
			return repository.ProcedureResult(map[string]string{"routine_id": p.RoutineID}, nil)
		}
		return repository.ProcedureResult(nil, repository.ProcedureNotFound("routine not found"))
	}
	return nil, repository.ErrUnknownProcedure
}
