package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection        = "users"
	PantriesCollection     = "pantries"
	SavedRecipesCollection = "savedrecipes"
)

// Store is the process-wide Mongo handle. It is created once at startup and
// passed to every repository; Connect may be called any number of times.
type Store struct {
	uri    string
	dbName string
	logger *logrus.Logger

	once   sync.Once
	err    error
	client *mongo.Client
	db     *mongo.Database
}

func New(uri, dbName string, logger *logrus.Logger) *Store {
	return &Store{uri: uri, dbName: dbName, logger: logger}
}

// Connect dials and pings the deployment on first use. Later calls return the
// result of the first one.
func (s *Store) Connect(ctx context.Context) error {
	s.once.Do(func() {
		serverAPI := options.ServerAPI(options.ServerAPIVersion1)
		opts := options.Client().ApplyURI(s.uri).SetServerAPIOptions(serverAPI)

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			s.err = fmt.Errorf("connect mongo: %w", err)
			return
		}
		if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
			_ = client.Disconnect(context.Background())
			s.err = fmt.Errorf("ping mongo: %w", err)
			return
		}

		s.client = client
		s.db = client.Database(s.dbName)
		s.logger.WithField("database", s.dbName).Info("Connected to MongoDB")
	})
	return s.err
}

// Collection panics if Connect has not succeeded.
func (s *Store) Collection(name string) *mongo.Collection {
	if s.db == nil {
		panic("db: Collection called before Connect")
	}
	return s.db.Collection(name)
}

func (s *Store) Users() *mongo.Collection        { return s.Collection(UsersCollection) }
func (s *Store) Pantries() *mongo.Collection     { return s.Collection(PantriesCollection) }
func (s *Store) SavedRecipes() *mongo.Collection { return s.Collection(SavedRecipesCollection) }

// EnsureIndexes creates the unique indexes that back the one-account-per-email
// and one-document-per-owner invariants.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for name, key := range IndexKeys() {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(key + "_unique"),
		}
		if _, err := s.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s.%s: %w", name, key, err)
		}
		s.logger.WithFields(logrus.Fields{"collection": name, "key": key}).Debug("Index verified")
	}
	return nil
}

// IndexKeys maps each collection to its unique key.
func IndexKeys() map[string]string {
	return map[string]string{
		UsersCollection:        "email",
		PantriesCollection:     "owner",
		SavedRecipesCollection: "owner",
	}
}

func (s *Store) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
