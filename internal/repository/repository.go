package repository

import (
	"alcyxob/myhealth/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Error constants for the remote gateway layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	// ErrMalformedRemoteRow is matched by every MalformedRowError.
	ErrMalformedRemoteRow = RepositoryError("malformed remote row")
	ErrUnknownProcedure   = RepositoryError("unknown procedure")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MalformedRowError reports a remote row that cannot be turned into a local entity.
type MalformedRowError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed %s row: field %q: %s", e.Collection, e.Field, e.Reason)
}

func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRemoteRow
}

// Patch is a partial update keyed by remote column name.
type Patch map[string]any

// Remote procedure names used for routines.
const (
	ProcCreateRoutine = "create-routine"
	ProcUpdateRoutine = "update-routine"
	ProcDeleteRoutine = "delete-routine"
)

// WorkoutGateway reads and writes saved workouts in the remote store.
type WorkoutGateway interface {
	FetchWorkouts(ctx context.Context, user domain.Identity) ([]WorkoutRow, error)
	InsertWorkout(ctx context.Context, user domain.Identity, row WorkoutRow) (WorkoutRow, error)
	// UpdateWorkout returns ErrNotFound when no row with id belongs to user.
	UpdateWorkout(ctx context.Context, user domain.Identity, id string, patch Patch) error
}

// HistoryGateway reads and writes completed workout logs in the remote store.
type HistoryGateway interface {
	FetchLogs(ctx context.Context, user domain.Identity) ([]LogRow, error)
	InsertLog(ctx context.Context, user domain.Identity, row LogRow) (LogRow, error)
	UpdateLog(ctx context.Context, user domain.Identity, id string, patch Patch) error
}

// MeasurementGateway reads and writes body measurements. Rows are unique per (user, date).
type MeasurementGateway interface {
	FetchMeasurements(ctx context.Context, user domain.Identity) ([]MeasurementRow, error)
	// UpsertMeasurement inserts the row or, when the user already has one for row.Date,
	// updates that one. The stored row is returned.
	UpsertMeasurement(ctx context.Context, user domain.Identity, row MeasurementRow) (MeasurementRow, error)
	UpdateMeasurement(ctx context.Context, user domain.Identity, id string, patch Patch) error
}

// ProcedureInvoker calls a named server-side procedure with a JSON payload.
// The result is the procedure's JSON envelope: {"data": ..., "error": "..."}.
type ProcedureInvoker interface {
	Invoke(ctx context.Context, user domain.Identity, name string, payload any) (json.RawMessage, error)
}

// RoutineGateway reads routines directly and writes them through procedures.
type RoutineGateway interface {
	FetchRoutines(ctx context.Context, user domain.Identity) ([]RoutineRow, error)
	ProcedureInvoker
}

// Gateway is the full remote surface the sync engine needs.
type Gateway interface {
	WorkoutGateway
	HistoryGateway
	MeasurementGateway
	RoutineGateway
}

// RoutinePayload is the body of the routine procedures.
type RoutinePayload struct {
	RoutineID   string              `json:"routine_id,omitempty"`
	RoutineName string              `json:"routine_name,omitempty"`
	Exercises   []domain.RoutineDay `json:"exercises,omitempty"`
	UserID      string              `json:"user_id"`
}

type procedureEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code,omitempty"`
}

// ProcCodeNotFound marks a procedure failure about a record the remote store does not hold.
const ProcCodeNotFound = "not_found"

// procedureNotFound is a procedure failure that matches ErrNotFound.
type procedureNotFound struct {
	msg string
}

func (e *procedureNotFound) Error() string { return e.msg }

func (e *procedureNotFound) Is(target error) bool { return target == ErrNotFound }

// ProcedureNotFound reports a procedure failure caused by a missing record.
func ProcedureNotFound(msg string) error {
	return &procedureNotFound{msg: msg}
}

// ProcedureResult wraps a procedure outcome in the standard envelope.
func ProcedureResult(data any, procErr error) (json.RawMessage, error) {
	env := map[string]any{"data": data}
	if procErr != nil {
		env["error"] = procErr.Error()
		if errors.Is(procErr, ErrNotFound) {
			env["code"] = ProcCodeNotFound
		}
	}
	return json.Marshal(env)
}

// DecodeProcedureResponse unwraps a procedure envelope. A non-empty error field
// becomes an error, matching ErrNotFound for the not_found code; the raw data is
// returned otherwise.
func DecodeProcedureResponse(raw json.RawMessage) (json.RawMessage, error) {
	var env procedureEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode procedure response: %w", err)
	}
	if env.Code == ProcCodeNotFound {
		msg := env.Error
		if msg == "" {
			msg = ErrNotFound.Error()
		}
		return nil, ProcedureNotFound(msg)
	}
	if env.Error != "" {
		return nil, errors.New(env.Error)
	}
	return env.Data, nil
}

// DecodeRoutineResponse unwraps a create-routine or update-routine response.
func DecodeRoutineResponse(raw json.RawMessage) (RoutineRow, error) {
	data, err := DecodeProcedureResponse(raw)
	if err != nil {
		return RoutineRow{}, err
	}
	if len(data) == 0 || string(data) == "null" {
		return RoutineRow{}, errors.New("procedure returned no routine")
	}
	var row RoutineRow
	if err := json.Unmarshal(data, &row); err != nil {
		return RoutineRow{}, &MalformedRowError{Collection: "routines", Field: "data", Reason: err.Error()}
	}
	return row, nil
}
