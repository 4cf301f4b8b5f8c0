// internal/repository/mongo/gateway.go
package mongo

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Columns a patch may set, per collection.
var patchColumns = map[string]map[string]bool{
	workoutsCollection: {"workout_name": true, "notes": true, "updated_at": true, "deleted_at": true},
	historyCollection: {
		"workout_name": true, "workout_time": true, "duration": true, "note": true,
		"exercises": true, "updated_at": true, "deleted_at": true,
	},
	measurementsCollection: {"weight": true, "date": true, "updated_at": true, "deleted_at": true},
}

// mongoGateway implements repository.Gateway on top of a MongoDB database.
type mongoGateway struct {
	workouts     *mongo.Collection
	history      *mongo.Collection
	routines     *mongo.Collection
	measurements *mongo.Collection
	procedures   map[string]procedure
	now          func() time.Time
}

type procedure func(ctx context.Context, user domain.Identity, payload repository.RoutinePayload) (any, error)

// NewGateway creates a remote gateway backed by MongoDB.
func NewGateway(db *mongo.Database) repository.Gateway {
	g := &mongoGateway{
		workouts:     db.Collection(workoutsCollection),
		history:      db.Collection(historyCollection),
		routines:     db.Collection(routinesCollection),
		measurements: db.Collection(measurementsCollection),
		now:          func() time.Time { return time.Now().UTC() },
	}
	g.procedures = map[string]procedure{
		repository.ProcCreateRoutine: g.createRoutine,
		repository.ProcUpdateRoutine: g.updateRoutine,
		repository.ProcDeleteRoutine: g.deleteRoutine,
	}
	return g
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// ownedFilter matches live documents of user, optionally narrowed to one id.
func ownedFilter(user domain.Identity, id string) bson.M {
	filter := bson.M{"user_id": user.UserID, "deleted_at": nil}
	if id != "" {
		filter["_id"] = id
	}
	return filter
}

// setDoc turns a patch into a $set document, rejecting columns the collection does not have.
func setDoc(collection string, patch repository.Patch) (bson.M, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("empty patch for %s", collection)
	}
	allowed := patchColumns[collection]
	set := bson.M{}
	for k, v := range patch {
		if !allowed[k] {
			return nil, fmt.Errorf("column %q cannot be patched on %s", k, collection)
		}
		set[k] = v
	}
	return bson.M{"$set": set}, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := make([]T, 0)
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *mongoGateway) update(ctx context.Context, coll *mongo.Collection, user domain.Identity, id string, patch repository.Patch) error {
	if id == "" {
		return errors.New("id is required for update")
	}
	doc, err := setDoc(coll.Name(), patch)
	if err != nil {
		return err
	}
	result, err := coll.UpdateOne(ctx, ownedFilter(user, id), doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (g *mongoGateway) FetchWorkouts(ctx context.Context, user domain.Identity) ([]repository.WorkoutRow, error) {
	return findAll[repository.WorkoutRow](ctx, g.workouts, ownedFilter(user, ""), bson.D{{Key: "created_at", Value: -1}})
}

func (g *mongoGateway) InsertWorkout(ctx context.Context, user domain.Identity, row repository.WorkoutRow) (repository.WorkoutRow, error) {
	row.ID = newID()
	row.UserID = user.UserID
	row.DeletedAt = nil
	if row.CreatedAt.IsZero() {
		row.CreatedAt = g.now()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := g.workouts.InsertOne(ctx, row); err != nil {
		return repository.WorkoutRow{}, err
	}
	return row, nil
}

func (g *mongoGateway) UpdateWorkout(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, g.workouts, user, id, patch)
}

func (g *mongoGateway) FetchLogs(ctx context.Context, user domain.Identity) ([]repository.LogRow, error) {
	return findAll[repository.LogRow](ctx, g.history, ownedFilter(user, ""), bson.D{{Key: "workout_time", Value: -1}})
}

func (g *mongoGateway) InsertLog(ctx context.Context, user domain.Identity, row repository.LogRow) (repository.LogRow, error) {
	row.ID = newID()
	row.UserID = user.UserID
	row.DeletedAt = nil
	if row.CreatedAt.IsZero() {
		row.CreatedAt = g.now()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if _, err := g.history.InsertOne(ctx, row); err != nil {
		return repository.LogRow{}, err
	}
	return row, nil
}

func (g *mongoGateway) UpdateLog(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, g.history, user, id, patch)
}

func (g *mongoGateway) FetchMeasurements(ctx context.Context, user domain.Identity) ([]repository.MeasurementRow, error) {
	return findAll[repository.MeasurementRow](ctx, g.measurements, ownedFilter(user, ""), bson.D{{Key: "date", Value: 1}})
}

// UpsertMeasurement keys on (user_id, date). A soft-deleted entry for the date is revived.
func (g *mongoGateway) UpsertMeasurement(ctx context.Context, user domain.Identity, row repository.MeasurementRow) (repository.MeasurementRow, error) {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = g.now()
	}
	filter := bson.M{"user_id": user.UserID, "date": row.Date}
	update := bson.M{
		"$set": bson.M{
			"weight":     row.Weight,
			"updated_at": row.UpdatedAt,
			"deleted_at": nil,
		},
		"$setOnInsert": bson.M{"_id": newID()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored repository.MeasurementRow
	if err := g.measurements.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return repository.MeasurementRow{}, err
	}
	return stored, nil
}

func (g *mongoGateway) UpdateMeasurement(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, g.measurements, user, id, patch)
}

func (g *mongoGateway) FetchRoutines(ctx context.Context, user domain.Identity) ([]repository.RoutineRow, error) {
	return findAll[repository.RoutineRow](ctx, g.routines, ownedFilter(user, ""), bson.D{{Key: "created_at", Value: -1}})
}

// Invoke runs one of the routine procedures. Procedure failures are reported inside
// the returned envelope; transport failures are returned as errors.
func (g *mongoGateway) Invoke(ctx context.Context, user domain.Identity, name string, payload any) (json.RawMessage, error) {
	proc, ok := g.procedures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownProcedure, name)
	}
	body, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	body.UserID = user.UserID

	data, err := proc(ctx, user, body)
	var procErr *procedureError
	if errors.As(err, &procErr) {
		return repository.ProcedureResult(nil, procErr)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ProcedureResult(nil, err)
	}
	if err != nil {
		return nil, err
	}
	return repository.ProcedureResult(data, nil)
}

// procedureError is a business failure reported back to the caller inside the envelope.
type procedureError struct {
	msg string
}

func (e *procedureError) Error() string { return e.msg }

func decodePayload(payload any) (repository.RoutinePayload, error) {
	if p, ok := payload.(repository.RoutinePayload); ok {
		return p, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.RoutinePayload{}, fmt.Errorf("encode procedure payload: %w", err)
	}
	var p repository.RoutinePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return repository.RoutinePayload{}, fmt.Errorf("decode procedure payload: %w", err)
	}
	return p, nil
}

func encodeSequence(days []domain.RoutineDay) (string, error) {
	if days == nil {
		days = make([]domain.RoutineDay, 0)
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (g *mongoGateway) createRoutine(ctx context.Context, user domain.Identity, p repository.RoutinePayload) (any, error) {
	if p.RoutineName == "" {
		return nil, &procedureError{msg: "routine_name is required"}
	}
	sequence, err := encodeSequence(p.Exercises)
	if err != nil {
		return nil, err
	}
	now := g.now()
	row := repository.RoutineRow{
		ID:        newID(),
		UserID:    user.UserID,
		Name:      p.RoutineName,
		Sequence:  sequence,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := g.routines.InsertOne(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (g *mongoGateway) updateRoutine(ctx context.Context, user domain.Identity, p repository.RoutinePayload) (any, error) {
	if p.RoutineID == "" {
		return nil, &procedureError{msg: "routine_id is required"}
	}
	sequence, err := encodeSequence(p.Exercises)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"routine_name": p.RoutineName,
		"sequence":     sequence,
		"updated_at":   g.now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var row repository.RoutineRow
	err = g.routines.FindOneAndUpdate(ctx, ownedFilter(user, p.RoutineID), update, opts).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ProcedureNotFound("routine not found")
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (g *mongoGateway) deleteRoutine(ctx context.Context, user domain.Identity, p repository.RoutinePayload) (any, error) {
	if p.RoutineID == "" {
		return nil, &procedureError{msg: "routine_id is required"}
	}
	// Deleting an already deleted routine succeeds
	now := g.now()
	_, err := g.routines.UpdateOne(ctx, ownedFilter(user, p.RoutineID),
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	if err != nil {
		return nil, err
	}
	return map[string]string{"routine_id": p.RoutineID}, nil
}
