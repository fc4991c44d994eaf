package dtos

// UploadFileRequest carries the already-extracted text of a document,
// one entry per page. Text extraction happens upstream of this API.
type UploadFileRequest struct {
	Name  string   `json:"name" binding:"required"`
	Pages []string `json:"pages" binding:"required,min=1"`
}

type FileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UploadStatus string `json:"upload_status"`
	PageCount    int    `json:"page_count"`
	CreatedAt    string `json:"created_at"`
}

type FileListResponse struct {
	Files []FileResponse `json:"files"`
}
