package repositories

import (
	"askpdf-ai/internal/models"
	"askpdf-ai/pkg/mongodb"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FileRepository interface {
	Create(file *models.File) error
	FindByID(fileID string) (*models.File, error)
	FindByUser(userID primitive.ObjectID) ([]models.File, error)
	UpdateStatus(fileID primitive.ObjectID, status string, pageCount int) error
	Delete(fileID primitive.ObjectID) error
}

type fileRepository struct {
	fileCollection *mongo.Collection
}

func NewFileRepository(mongoClient *mongodb.MongoDBClient) FileRepository {
	return &fileRepository{
		fileCollection: mongoClient.GetCollectionByName("files"),
	}
}

func (r *fileRepository) Create(file *models.File) error {
	if file.ID.IsZero() {
		file.Base = models.NewBase()
	}
	_, err := r.fileCollection.InsertOne(context.Background(), file)
	return err
}

func (r *fileRepository) FindByID(fileID string) (*models.File, error) {
	fileIDPrimitive, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, err
	}
	var file models.File
	err = r.fileCollection.FindOne(context.Background(), bson.M{"_id": fileIDPrimitive}).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) FindByUser(userID primitive.ObjectID) ([]models.File, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.fileCollection.Find(context.Background(), bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	var files []models.File
	if err := cursor.All(context.Background(), &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) UpdateStatus(fileID primitive.ObjectID, status string, pageCount int) error {
	update := bson.M{"$set": bson.M{
		"upload_status": status,
		"page_count":    pageCount,
		"updated_at":    time.Now(),
	}}
	_, err := r.fileCollection.UpdateOne(context.Background(), bson.M{"_id": fileID}, update)
	return err
}

func (r *fileRepository) Delete(fileID primitive.ObjectID) error {
	_, err := r.fileCollection.DeleteOne(context.Background(), bson.M{"_id": fileID})
	return err
}
