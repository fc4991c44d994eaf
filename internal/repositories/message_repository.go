package repositories

import (
	"askpdf-ai/internal/models"
	"askpdf-ai/pkg/mongodb"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(message *models.Message) error
	// FindWindow returns up to fetchLimit messages of a file ordered
	// newest first. A non-nil cursor restricts the window to the cursor
	// message and everything older than it. The key is the compound
	// (created_at, _id) pair so equal timestamps still page stably.
	FindWindow(fileID primitive.ObjectID, fetchLimit int, cursor *primitive.ObjectID) ([]models.Message, error)
	FindRecent(fileID primitive.ObjectID, count int) ([]models.Message, error)
	DeleteByFile(fileID primitive.ObjectID) error
}

type messageRepository struct {
	messageCollection *mongo.Collection
}

func NewMessageRepository(mongoClient *mongodb.MongoDBClient) MessageRepository {
	return &messageRepository{
		messageCollection: mongoClient.GetCollectionByName("messages"),
	}
}

func (r *messageRepository) Create(message *models.Message) error {
	if message.ID.IsZero() {
		message.Base = models.NewBase()
	}
	_, err := r.messageCollection.InsertOne(context.Background(), message)
	return err
}

func (r *messageRepository) FindWindow(fileID primitive.ObjectID, fetchLimit int, cursor *primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{"file_id": fileID}

	if cursor != nil {
		var anchor models.Message
		err := r.messageCollection.FindOne(context.Background(), bson.M{"_id": *cursor, "file_id": fileID}).Decode(&anchor)
		if err == mongo.ErrNoDocuments {
			// Stale cursor, e.g. the anchor message's file was cleared.
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": anchor.CreatedAt}},
			bson.M{"created_at": anchor.CreatedAt, "_id": bson.M{"$lte": anchor.ID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(fetchLimit))
	cur, err := r.messageCollection.Find(context.Background(), filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())

	var messages []models.Message
	if err := cur.All(context.Background(), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) FindRecent(fileID primitive.ObjectID, count int) ([]models.Message, error) {
	return r.FindWindow(fileID, count, nil)
}

func (r *messageRepository) DeleteByFile(fileID primitive.ObjectID) error {
	_, err := r.messageCollection.DeleteMany(context.Background(), bson.M{"file_id": fileID})
	return err
}
