package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names of the remote store
const (
	workoutsCollection     = "workouts"
	historyCollection      = "workout_history"
	routinesCollection     = "routines"
	measurementsCollection = "body_measurements"
)

// ConnectDB connects to MongoDB at uri and verifies the primary is reachable.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// A connected client may still point at an unresponsive server
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the per-user lookup indexes and the (user_id, date)
// uniqueness of body measurements. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byUser := func(sortKey string, dir int) []mongo.IndexModel {
		return []mongo.IndexModel{{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: sortKey, Value: dir}},
			Options: options.Index(),
		}}
	}

	plan := map[string][]mongo.IndexModel{
		workoutsCollection: byUser("created_at", -1),
		historyCollection:  byUser("workout_time", -1),
		routinesCollection: byUser("created_at", -1),
		measurementsCollection: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_date_unique"),
		}},
	}

	for name, indexes := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			log.Printf("WARN: Failed to create indexes for collection %s: %v", name, err)
			return err
		}
	}
	log.Println("INFO: MongoDB indexes ensured")
	return nil
}
