package postgres

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgConnection is the part of pgxpool.Pool the gateway uses. pgxmock pools satisfy it too.
type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// table describes the patchable columns of a remote table.
type table struct {
	name    string
	idCol   string
	columns map[string]bool
}

var (
	workoutsTable = table{"workouts", "workout_id", map[string]bool{
		"workout_name": true, "notes": true, "updated_at": true, "deleted_at": true,
	}}
	logsTable = table{"workout_logs", "workout_log_id", map[string]bool{
		"workout_name": true, "workout_time": true, "duration": true, "note": true,
		"exercises": true, "updated_at": true, "deleted_at": true,
	}}
	measurementsTable = table{"body_measurements", "id", map[string]bool{
		"weight": true, "date": true, "updated_at": true, "deleted_at": true,
	}}
)

// Procedure names map to SQL functions taking one JSONB argument.
var procedureFuncs = map[string]string{
	repository.ProcCreateRoutine: "create_routine",
	repository.ProcUpdateRoutine: "update_routine",
	repository.ProcDeleteRoutine: "delete_routine",
}

// Codes raised by the procedures for business failures
const (
	pgRaiseException = "P0001" // raise_exception
	pgNoDataFound    = "P0002" // no_data_found
)

type Gateway struct {
	conn PgConnection
}

// NewPool opens a pgx pool on uri and pings it.
func NewPool(ctx context.Context, uri string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	log.Println("INFO: Connected to PostgreSQL")
	return pool, nil
}

// NewGateway creates a remote gateway over conn.
func NewGateway(conn PgConnection) *Gateway {
	return &Gateway{conn: conn}
}

var _ repository.Gateway = (*Gateway)(nil)

// buildUpdate renders an UPDATE for patch scoped to (id, user). Columns are sorted
// so the statement text is deterministic.
func buildUpdate(t table, id, userID string, patch repository.Patch) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("empty patch for %s", t.name)
	}
	cols := make([]string, 0, len(patch))
	for col := range patch {
		if !t.columns[col] {
			return "", nil, fmt.Errorf("column %q cannot be patched on %s", col, t.name)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, patch[col])
	}
	args = append(args, id, userID)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d AND user_id = $%d AND deleted_at IS NULL;",
		t.name, strings.Join(sets, ", "), t.idCol, len(cols)+1, len(cols)+2)
	return sql, args, nil
}

func (g *Gateway) update(ctx context.Context, t table, user domain.Identity, id string, patch repository.Patch) error {
	if id == "" {
		return errors.New("id is required for update")
	}
	sql, args, err := buildUpdate(t, id, user.UserID, patch)
	if err != nil {
		return err
	}
	ct, err := g.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", t.name, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (g *Gateway) FetchWorkouts(ctx context.Context, user domain.Identity) ([]repository.WorkoutRow, error) {
	rows, err := g.conn.Query(ctx, `SELECT workout_id, user_id, workout_name, notes, created_at, updated_at
		FROM workouts WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC;`, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching workouts: %w", err)
	}
	defer rows.Close()

	result := make([]repository.WorkoutRow, 0)
	for rows.Next() {
		var w repository.WorkoutRow
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading workouts: %w", err)
	}
	return result, nil
}

func (g *Gateway) InsertWorkout(ctx context.Context, user domain.Identity, row repository.WorkoutRow) (repository.WorkoutRow, error) {
	row.UserID = user.UserID
	err := g.conn.QueryRow(ctx, `INSERT INTO workouts (user_id, workout_name, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING workout_id;`,
		row.UserID, row.Name, row.Notes, row.CreatedAt, row.UpdatedAt,
	).Scan(&row.ID)
	if err != nil {
		return repository.WorkoutRow{}, fmt.Errorf("inserting workout: %w", err)
	}
	return row, nil
}

func (g *Gateway) UpdateWorkout(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, workoutsTable, user, id, patch)
}

func (g *Gateway) FetchLogs(ctx context.Context, user domain.Identity) ([]repository.LogRow, error) {
	rows, err := g.conn.Query(ctx, `SELECT workout_log_id, user_id, workout_name, workout_time::text, duration, note, exercises, created_at, updated_at
		FROM workout_logs WHERE user_id = $1 AND deleted_at IS NULL ORDER BY workout_time DESC;`, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching workout logs: %w", err)
	}
	defer rows.Close()

	result := make([]repository.LogRow, 0)
	for rows.Next() {
		var l repository.LogRow
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.WorkoutTime, &l.Duration, &l.Note, &l.Exercises, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout log: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading workout logs: %w", err)
	}
	return result, nil
}

func (g *Gateway) InsertLog(ctx context.Context, user domain.Identity, row repository.LogRow) (repository.LogRow, error) {
	row.UserID = user.UserID
	err := g.conn.QueryRow(ctx, `INSERT INTO workout_logs (user_id, workout_name, workout_time, duration, note, exercises, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING workout_log_id;`,
		row.UserID, row.Name, row.WorkoutTime, row.Duration, row.Note, row.Exercises, row.CreatedAt, row.UpdatedAt,
	).Scan(&row.ID)
	if err != nil {
		return repository.LogRow{}, fmt.Errorf("inserting workout log: %w", err)
	}
	return row, nil
}

func (g *Gateway) UpdateLog(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, logsTable, user, id, patch)
}

func (g *Gateway) FetchMeasurements(ctx context.Context, user domain.Identity) ([]repository.MeasurementRow, error) {
	rows, err := g.conn.Query(ctx, `SELECT id, user_id, weight, date::text, updated_at
		FROM body_measurements WHERE user_id = $1 AND deleted_at IS NULL ORDER BY date ASC;`, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching body measurements: %w", err)
	}
	defer rows.Close()

	result := make([]repository.MeasurementRow, 0)
	for rows.Next() {
		var m repository.MeasurementRow
		if err := rows.Scan(&m.ID, &m.UserID, &m.Weight, &m.Date, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning body measurement: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading body measurements: %w", err)
	}
	return result, nil
}

func (g *Gateway) UpsertMeasurement(ctx context.Context, user domain.Identity, row repository.MeasurementRow) (repository.MeasurementRow, error) {
	var stored repository.MeasurementRow
	err := g.conn.QueryRow(ctx, `INSERT INTO body_measurements (user_id, weight, date, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, date) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at, deleted_at = NULL
		RETURNING id, user_id, weight, date::text, updated_at;`,
		user.UserID, row.Weight, row.Date, row.UpdatedAt,
	).Scan(&stored.ID, &stored.UserID, &stored.Weight, &stored.Date, &stored.UpdatedAt)
	if err != nil {
		return repository.MeasurementRow{}, fmt.Errorf("upserting body measurement: %w", err)
	}
	return stored, nil
}

func (g *Gateway) UpdateMeasurement(ctx context.Context, user domain.Identity, id string, patch repository.Patch) error {
	return g.update(ctx, measurementsTable, user, id, patch)
}

func (g *Gateway) FetchRoutines(ctx context.Context, user domain.Identity) ([]repository.RoutineRow, error) {
	rows, err := g.conn.Query(ctx, `SELECT routine_id, user_id, routine_name, sequence, created_at, updated_at
		FROM routines WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC;`, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching routines: %w", err)
	}
	defer rows.Close()

	result := make([]repository.RoutineRow, 0)
	for rows.Next() {
		var r repository.RoutineRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Sequence, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading routines: %w", err)
	}
	return result, nil
}

// Invoke calls the SQL function behind a procedure name. Exceptions raised by the
// function are reported inside the returned envelope.
func (g *Gateway) Invoke(ctx context.Context, user domain.Identity, name string, payload any) (json.RawMessage, error) {
	fn, ok := procedureFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownProcedure, name)
	}
	body, err := withUser(payload, user.UserID)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = g.conn.QueryRow(ctx, fmt.Sprintf("SELECT %s($1::jsonb);", fn), string(body)).Scan(&data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgRaiseException:
				return repository.ProcedureResult(nil, errors.New(pgErr.Message))
			case pgNoDataFound:
				return repository.ProcedureResult(nil, repository.ProcedureNotFound(pgErr.Message))
			}
		}
		return nil, fmt.Errorf("invoking %s: %w", name, err)
	}
	return repository.ProcedureResult(json.RawMessage(data), nil)
}

// withUser encodes payload as a JSON object with user_id forced to the caller.
func withUser(payload any, userID string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding procedure payload: %w", err)
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("procedure payload must be an object: %w", err)
	}
	body["user_id"] = userID
	return json.Marshal(body)
}
