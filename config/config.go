package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	models "github.com/promittee/givehub-go/models"
)

type Config struct {
	MongoClient *mongo.Client
	DBName      string
	JWTSecret   string
	Port        string
}

// Load reads .env (if present), connects to Mongo, and verifies the
// connection with a ping.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "givehub"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Config{
		MongoClient: client,
		DBName:      dbName,
		JWTSecret:   secret,
		Port:        port,
	}, nil
}

// Collection is a shorthand for the named collection in the configured DB.
func (c *Config) Collection(name string) *mongo.Collection {
	return c.MongoClient.Database(c.DBName).Collection(name)
}

// EnsureIndexes creates the indexes the write paths rely on. The volunteers
// index enforces one live application per donor per opportunity at the
// storage layer; only a REJECTED application frees the pair for reuse.
func (c *Config) EnsureIndexes(ctx context.Context) error {
	_, err := c.Collection("volunteers").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "donor_id", Value: 1},
			{Key: "opportunity_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": models.ActiveApplicationStatuses()},
			}),
	})
	if err != nil {
		return fmt.Errorf("volunteers index: %w", err)
	}
	return nil
}
