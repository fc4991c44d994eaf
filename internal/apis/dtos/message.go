package dtos

type SendMessageRequest struct {
	FileID  string `json:"file_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type MessageResponse struct {
	ID            string `json:"id"`
	FileID        string `json:"file_id"`
	IsUserMessage bool   `json:"is_user_message"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
}

type MessageListRequest struct {
	Limit  int    `form:"limit"`
	Cursor string `form:"cursor"`
}

// MessageListResponse is one keyset page, newest first. NextCursor is
// the id of the first message beyond the page and is omitted on the
// last page.
type MessageListResponse struct {
	Messages   []MessageResponse `json:"messages"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}
