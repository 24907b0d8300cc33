package attachment

import "time"

type Attachment struct {
	ID         int       `json:"id"`
	ContractID int       `json:"contractId"`
	FileName   string    `json:"fileName"`
	FilePath   string    `json:"filePath"`
	Size       int64     `json:"size"`
	UploadedBy int       `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UploadRequest struct {
	ContractID  int
	FileName    string
	ContentType string
	Data        []byte
}
