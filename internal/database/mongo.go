package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// MongoStore keeps live stints in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *logrus.Entry
}

// NewMongo connects to uri and uses the live_stints collection of dbName.
func NewMongo(uri, dbName string, log *logrus.Entry) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "cannot reach mongodb")
	}

	log.WithFields(logrus.Fields{"component": "database", "driver": "mongo", "db": dbName}).Info("Database ready")
	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(tableName),
		log:    log.WithField("component", "database"),
	}, nil
}

func (m *MongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *MongoStore) Insert(ctx context.Context, rec StintRecord) error {
	if _, err := m.coll.InsertOne(ctx, rec); err != nil {
		return errors.Wrapf(err, "cannot insert stint %s", rec.ID)
	}
	m.log.WithField("stint", rec.ID).Debug("Stint saved")
	return nil
}

func (m *MongoStore) GetAll(ctx context.Context) ([]StintRecord, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoStore) GetByGame(ctx context.Context, gameID int) ([]StintRecord, error) {
	return m.find(ctx, bson.M{"game_id": gameID})
}

func (m *MongoStore) GetByPlayer(ctx context.Context, playerID string) ([]StintRecord, error) {
	results, err := m.find(ctx, bson.M{"$or": []bson.M{
		{"player1": playerID},
		{"player2": playerID},
		{"player3": playerID},
		{"player4": playerID},
	}})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (m *MongoStore) find(ctx context.Context, filter bson.M) ([]StintRecord, error) {
	cursor, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "cannot query stints")
	}
	defer cursor.Close(ctx)

	results := []StintRecord{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "cannot decode stints")
	}
	return results, nil
}
