package syncer

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/repository"
	"context"
	"errors"
	"log"
)

// pusher describes how the records of one collection reach the remote store.
// insert and update return the id the remote store holds the record under; an
// empty id keeps the local one.
type pusher[T any, PT local.RecordPtr[T]] struct {
	name   string
	insert func(ctx context.Context, user domain.Identity, item T) (string, error)
	update func(ctx context.Context, user domain.Identity, item T) (string, error)
	remove func(ctx context.Context, user domain.Identity, item T) error
	// insertOnMissing retries an update the remote store rejected with ErrNotFound
	// as an insert.
	insertOnMissing bool
	// skip leaves a pending record untouched for this user.
	skip func(item T) bool
	// adjust is applied to the local record once the push is confirmed.
	adjust func(PT)
}

// pushCollection sends every pending record of c. Records are processed one at a
// time; a failure leaves that record pending and moves on to the next one.
func pushCollection[T any, PT local.RecordPtr[T]](ctx context.Context, repo *local.Repository, c *local.Collection[T, PT], user domain.Identity, p pusher[T, PT]) (pushed, failed int) {
	var adjust []func(PT)
	if p.adjust != nil {
		adjust = append(adjust, p.adjust)
	}

	for _, item := range c.Pending(ctx) {
		if ctx.Err() != nil {
			log.Printf("WARN: Push of %s interrupted: %v", p.name, ctx.Err())
			return pushed, failed
		}
		if p.skip != nil && p.skip(item) {
			continue
		}
		s := PT(&item).SyncState()
		localID, pushedRev := s.ID, s.Revision

		switch {
		case s.IsDeleted() && !s.KnownRemotely():
			// Never reached the remote store, nothing to tell it.
			c.Purge(ctx, localID, pushedRev)
			pushed++

		case s.IsDeleted():
			err := p.remove(ctx, user, item)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				log.Printf("ERROR: Failed to push deletion of %s %s: %v", p.name, localID, err)
				failed++
				continue
			}
			c.Purge(ctx, localID, pushedRev)
			pushed++

		default:
			remoteID, err := pushLive(ctx, user, item, s.KnownRemotely(), p)
			if err != nil {
				log.Printf("ERROR: Failed to push %s %s: %v", p.name, localID, err)
				failed++
				continue
			}
			c.MarkPushed(ctx, localID, pushedRev, remoteID, repo.Now(), adjust...)
			pushed++
		}
	}
	return pushed, failed
}

func pushLive[T any, PT local.RecordPtr[T]](ctx context.Context, user domain.Identity, item T, known bool, p pusher[T, PT]) (string, error) {
	if !known {
		return p.insert(ctx, user, item)
	}
	remoteID, err := p.update(ctx, user, item)
	if errors.Is(err, repository.ErrNotFound) && p.insertOnMissing {
		log.Printf("WARN: %s %s missing remotely, inserting it again", p.name, PT(&item).SyncState().ID)
		return p.insert(ctx, user, item)
	}
	return remoteID, err
}

// push sends the pending records of every collection: history first, then saved
// workouts, routines and body measurements.
func (e *Engine) push(ctx context.Context, user domain.Identity, report *Report) {
	report.add(pushCollection(ctx, e.repo, e.repo.History(), user, e.historyPusher()))
	report.add(pushCollection(ctx, e.repo, e.repo.Workouts(), user, e.workoutPusher()))
	report.add(pushCollection(ctx, e.repo, e.repo.Routines(), user, e.routinePusher()))

	if adopted := e.repo.AdoptGuestMeasurements(ctx, user.UserID); adopted > 0 {
		log.Printf("INFO: Adopted %d guest measurements for user %s", adopted, user.UserID)
	}
	report.add(pushCollection(ctx, e.repo, e.repo.Measurements(), user, e.measurementPusher(user)))
}

func (e *Engine) historyPusher() pusher[domain.WorkoutLog, *domain.WorkoutLog] {
	return pusher[domain.WorkoutLog, *domain.WorkoutLog]{
		name: "workout log",
		insert: func(ctx context.Context, user domain.Identity, l domain.WorkoutLog) (string, error) {
			row, err := repository.NewLogRow(user, l)
			if err != nil {
				return "", err
			}
			stored, err := e.gateway.InsertLog(ctx, user, row)
			return stored.ID, err
		},
		update: func(ctx context.Context, user domain.Identity, l domain.WorkoutLog) (string, error) {
			patch, err := repository.LogPatch(l)
			if err != nil {
				return "", err
			}
			return "", e.gateway.UpdateLog(ctx, user, l.ID, patch)
		},
		remove: func(ctx context.Context, user domain.Identity, l domain.WorkoutLog) error {
			return e.gateway.UpdateLog(ctx, user, l.ID, repository.DeletionPatch(*l.DeletedAt))
		},
		insertOnMissing: true,
	}
}

func (e *Engine) workoutPusher() pusher[domain.SavedWorkout, *domain.SavedWorkout] {
	return pusher[domain.SavedWorkout, *domain.SavedWorkout]{
		name: "workout",
		insert: func(ctx context.Context, user domain.Identity, w domain.SavedWorkout) (string, error) {
			row, err := repository.NewWorkoutRow(user, w)
			if err != nil {
				return "", err
			}
			stored, err := e.gateway.InsertWorkout(ctx, user, row)
			return stored.ID, err
		},
		update: func(ctx context.Context, user domain.Identity, w domain.SavedWorkout) (string, error) {
			patch, err := repository.WorkoutPatch(w)
			if err != nil {
				return "", err
			}
			return "", e.gateway.UpdateWorkout(ctx, user, w.ID, patch)
		},
		remove: func(ctx context.Context, user domain.Identity, w domain.SavedWorkout) error {
			return e.gateway.UpdateWorkout(ctx, user, w.ID, repository.DeletionPatch(*w.DeletedAt))
		},
		insertOnMissing: true,
	}
}

func (e *Engine) routinePusher() pusher[domain.WorkoutRoutine, *domain.WorkoutRoutine] {
	call := func(ctx context.Context, user domain.Identity, proc string, payload repository.RoutinePayload) (string, error) {
		raw, err := e.gateway.Invoke(ctx, user, proc, payload)
		if err != nil {
			return "", err
		}
		row, err := repository.DecodeRoutineResponse(raw)
		if err != nil {
			return "", err
		}
		return row.ID, nil
	}

	return pusher[domain.WorkoutRoutine, *domain.WorkoutRoutine]{
		name: "routine",
		insert: func(ctx context.Context, user domain.Identity, r domain.WorkoutRoutine) (string, error) {
			return call(ctx, user, repository.ProcCreateRoutine, repository.NewRoutinePayload(user, r, false))
		},
		update: func(ctx context.Context, user domain.Identity, r domain.WorkoutRoutine) (string, error) {
			return call(ctx, user, repository.ProcUpdateRoutine, repository.NewRoutinePayload(user, r, true))
		},
		remove: func(ctx context.Context, user domain.Identity, r domain.WorkoutRoutine) error {
			raw, err := e.gateway.Invoke(ctx, user, repository.ProcDeleteRoutine,
				repository.RoutinePayload{RoutineID: r.ID, UserID: user.UserID})
			if err != nil {
				return err
			}
			_, err = repository.DecodeProcedureResponse(raw)
			return err
		},
		insertOnMissing: true,
	}
}

func (e *Engine) measurementPusher(user domain.Identity) pusher[domain.BodyMeasurement, *domain.BodyMeasurement] {
	upsert := func(ctx context.Context, user domain.Identity, m domain.BodyMeasurement) (string, error) {
		stored, err := e.gateway.UpsertMeasurement(ctx, user, repository.NewMeasurementRow(user, m))
		return stored.ID, err
	}

	return pusher[domain.BodyMeasurement, *domain.BodyMeasurement]{
		name:   "body measurement",
		insert: upsert,
		update: upsert,
		remove: func(ctx context.Context, user domain.Identity, m domain.BodyMeasurement) error {
			return e.gateway.UpdateMeasurement(ctx, user, m.ID, repository.DeletionPatch(*m.DeletedAt))
		},
		skip: func(m domain.BodyMeasurement) bool {
			return m.UserID != user.UserID
		},
		adjust: func(m *domain.BodyMeasurement) {
			m.UserID = user.UserID
		},
	}
}
