package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload statuses for a file. Retrieval is only possible once indexing
// reached UploadStatusSuccess; every other status degrades the chat
// pipeline to generation without grounding context.
const (
	UploadStatusPending    = "PENDING"
	UploadStatusProcessing = "PROCESSING"
	UploadStatusSuccess    = "SUCCESS"
	UploadStatusFailed     = "FAILED"
)

type File struct {
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name         string             `bson:"name" json:"name"`
	UploadStatus string             `bson:"upload_status" json:"upload_status"`
	PageCount    int                `bson:"page_count" json:"page_count"` // number of indexed chunks
	Base         `bson:",inline"`
}

func NewFile(userID primitive.ObjectID, name string) *File {
	return &File{
		UserID:       userID,
		Name:         name,
		UploadStatus: UploadStatusPending,
		Base:         NewBase(),
	}
}
