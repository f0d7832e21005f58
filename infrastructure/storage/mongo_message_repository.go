package storage

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const messagesCollection = "messages"

// MongoMessageRepository keeps one document per message in the "messages" collection.
// The uuid is stored as the document _id.
type MongoMessageRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
	now        func() time.Time
}

func NewMongoMessageRepository(ctx context.Context, uri, database string, log *slog.Logger) (*MongoMessageRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	collection := client.Database(database).Collection(messagesCollection)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}},
	}
	if _, err = collection.Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes for %s: %w", messagesCollection, err)
	}
	log.Info("Connected to MongoDB", "database", database, "collection", messagesCollection)
	return &MongoMessageRepository{client: client, collection: collection, log: log, now: time.Now}, nil
}

func (r *MongoMessageRepository) Insert(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := cmd.Validate(); err != nil {
		return chat.Message{}, err
	}
	message := cmd.NewMessage(uuid.NewString(), r.now())
	if _, err := r.collection.InsertOne(ctx, repositories.FromMessage(message)); err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

func (r *MongoMessageRepository) FindByID(ctx context.Context, id string) (chat.Message, error) {
	var doc repositories.DiskMessage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return chat.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return chat.Message{}, err
	}
	return repositories.ToMessage(doc), nil
}

func (r *MongoMessageRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	return nil
}

func (r *MongoMessageRepository) FindAll(ctx context.Context) ([]chat.Message, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoMessageRepository) FindByParticipant(ctx context.Context, participantID string) ([]chat.Message, error) {
	return r.find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"sender": participantID},
			bson.M{"receiver": participantID},
		},
	})
}

func (r *MongoMessageRepository) FindBySender(ctx context.Context, senderID string) ([]chat.Message, error) {
	return r.find(ctx, bson.M{"sender": senderID})
}

func (r *MongoMessageRepository) FindInTimeRange(ctx context.Context, from, to time.Time) ([]chat.Message, error) {
	return r.find(ctx, bson.M{
		"timestamp": bson.M{
			"$gte": chat.NormalizeTimestamp(from),
			"$lte": chat.NormalizeTimestamp(to),
		},
	})
}

func (r *MongoMessageRepository) Close() error {
	r.log.Info("Disconnecting from MongoDB...")
	return r.client.Disconnect(context.Background())
}

func (r *MongoMessageRepository) find(ctx context.Context, filter bson.M) ([]chat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []repositories.DiskMessage
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(item repositories.DiskMessage, _ int) chat.Message {
		return repositories.ToMessage(item)
	}), nil
}
