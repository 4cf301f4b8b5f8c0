package mongo

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSetDoc(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	doc, err := setDoc(workoutsCollection, repository.Patch{"workout_name": "Legs", "updated_at": ts})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$set": bson.M{"workout_name": "Legs", "updated_at": ts}}, doc)

	_, err = setDoc(workoutsCollection, repository.Patch{"user_id": "someone-else"})
	assert.Error(t, err, "ownership cannot be patched")

	_, err = setDoc(measurementsCollection, repository.Patch{})
	assert.Error(t, err)

	_, err = setDoc(routinesCollection, repository.Patch{"routine_name": "x"})
	assert.Error(t, err, "routines change only through procedures")
}

func TestOwnedFilter(t *testing.T) {
	user := domain.Identity{UserID: "u-1"}
	assert.Equal(t, bson.M{"user_id": "u-1", "deleted_at": nil}, ownedFilter(user, ""))
	assert.Equal(t, bson.M{"user_id": "u-1", "deleted_at": nil, "_id": "abc"}, ownedFilter(user, "abc"))
}

func TestDecodePayload(t *testing.T) {
	direct := repository.RoutinePayload{RoutineID: "r-1"}
	p, err := decodePayload(direct)
	require.NoError(t, err)
	assert.Equal(t, direct, p)

	p, err = decodePayload(map[string]any{
		"routine_name": "PPL",
		"exercises":    []map[string]any{{"type": "rest"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PPL", p.RoutineName)
	require.Len(t, p.Exercises, 1)
	assert.Equal(t, domain.RoutineDayRest, p.Exercises[0].Type)

	_, err = decodePayload(make(chan int))
	assert.Error(t, err)
}

func TestEncodeSequence(t *testing.T) {
	s, err := encodeSequence(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = encodeSequence([]domain.RoutineDay{{Type: domain.RoutineDayWorkout, Name: "Push"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"workout","name":"Push"}]`, s)
}
