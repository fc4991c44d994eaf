package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one turn of a conversation attached to a file. The two
// variants (user turn / assistant turn) are distinguished by the
// IsUserMessage tag, not by subtype.
type Message struct {
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	FileID        primitive.ObjectID `bson:"file_id" json:"file_id"`
	IsUserMessage bool               `bson:"is_user_message" json:"is_user_message"`
	Text          string             `bson:"text" json:"text"`
	Base          `bson:",inline"`
}

func NewMessage(userID, fileID primitive.ObjectID, isUserMessage bool, text string) *Message {
	return &Message{
		UserID:        userID,
		FileID:        fileID,
		IsUserMessage: isUserMessage,
		Text:          text,
		Base:          NewBase(),
	}
}
