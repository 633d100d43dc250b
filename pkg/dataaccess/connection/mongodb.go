package connection

import (
	"context"
	"fmt"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/ticketbot/pkg/dataaccess/monitoring"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectTimeout bounds the initial connection and ping.
const connectTimeout = 10 * time.Second

type MongoDB struct {
	ConnectionString string
}

// Ping checks that the client can reach the server.
func Ping(ctx context.Context, client *mongo.Client) error {
	done := dbMonitoring.Query("mongo", "ping")
	err := client.Ping(ctx, nil)
	done(err)
	if err != nil {
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}

// Connect connects to MongoDB, pings it and ensures the ticket indexes exist.
func (m *MongoDB) Connect(database string) (*mongo.Client, error) {
	if m.ConnectionString == "" {
		return nil, fmt.Errorf("no mongo connection string provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		return nil, err
	}

	// One record per ticket channel.
	_, err = client.Database(database).Collection("tickets").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "channel_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket index: %w", err)
	}
	return client, nil
}
