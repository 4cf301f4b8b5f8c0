package postgres

import (
	"context"
	"fmt"
)

// Schema creates the remote tables and the routine procedures.
// Every statement is idempotent.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS workouts (
	workout_id   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id      TEXT NOT NULL,
	workout_name TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS workouts_user_idx ON workouts (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS workout_logs (
	workout_log_id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id        TEXT NOT NULL,
	workout_name   TEXT NOT NULL,
	workout_time   DATE NOT NULL,
	duration       INTEGER NOT NULL DEFAULT 0,
	note           TEXT NOT NULL DEFAULT '',
	exercises      TEXT NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS workout_logs_user_idx ON workout_logs (user_id, workout_time DESC);

CREATE TABLE IF NOT EXISTS routines (
	routine_id   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id      TEXT NOT NULL,
	routine_name TEXT NOT NULL,
	sequence     TEXT NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS body_measurements (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	weight     DOUBLE PRECISION NOT NULL CHECK (weight > 0),
	date       DATE NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ,
	UNIQUE (user_id, date)
);

CREATE OR REPLACE FUNCTION create_routine(body JSONB) RETURNS JSONB AS $$
DECLARE
	r routines;
BEGIN
	IF COALESCE(body->>'routine_name', '') = '' THEN
		RAISE EXCEPTION 'routine_name is required';
	END IF;
	INSERT INTO routines (user_id, routine_name, sequence)
	VALUES (body->>'user_id', body->>'routine_name', COALESCE(body->'exercises', '[]'::jsonb)::text)
	RETURNING * INTO r;
	RETURN to_jsonb(r);
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION update_routine(body JSONB) RETURNS JSONB AS $$
DECLARE
	r routines;
BEGIN
	UPDATE routines
	SET routine_name = body->>'routine_name',
		sequence = COALESCE(body->'exercises', '[]'::jsonb)::text,
		updated_at = NOW()
	WHERE routine_id = body->>'routine_id' AND user_id = body->>'user_id' AND deleted_at IS NULL
	RETURNING * INTO r;
	IF NOT FOUND THEN
		RAISE EXCEPTION 'routine not found' USING ERRCODE = 'no_data_found';
	END IF;
	RETURN to_jsonb(r);
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION delete_routine(body JSONB) RETURNS JSONB AS $$
BEGIN
	UPDATE routines SET deleted_at = NOW(), updated_at = NOW()
	WHERE routine_id = body->>'routine_id' AND user_id = body->>'user_id' AND deleted_at IS NULL;
	RETURN jsonb_build_object('routine_id', body->>'routine_id');
END;
$$ LANGUAGE plpgsql;
`

// EnsureSchema applies Schema on conn.
func EnsureSchema(ctx context.Context, conn PgConnection) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
