package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brickDelivery/models"
)

type messageDoc struct {
	ID        int64  `bson:"_id"`
	Name      string `bson:"name"`
	Contact   string `bson:"contact"`
	Body      string `bson:"body"`
	CreatedAt string `bson:"created_at"`
}

// MongoMessageRepository is the MongoDB-backed MessageStore.
type MongoMessageRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{col: db.Collection("messages"), counters: db.Collection("counters")}
}

func (m *MongoMessageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	id, err := nextSequence(ctx, m.counters, "messages")
	if err != nil {
		return nil, err
	}
	doc := messageDoc{ID: id, Name: msg.Name, Contact: msg.Contact, Body: msg.Body, CreatedAt: time.Now().UTC().Format(PlacementLayout)}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &models.Message{ID: doc.ID, Name: doc.Name, Contact: doc.Contact, Body: doc.Body, CreatedAt: doc.CreatedAt}, nil
}

func (m *MongoMessageRepository) List(ctx context.Context, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Message
	for cur.Next(ctx) {
		var d messageDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, models.Message{ID: d.ID, Name: d.Name, Contact: d.Contact, Body: d.Body, CreatedAt: d.CreatedAt})
	}
	return out, cur.Err()
}

func (m *MongoMessageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
