package signature

import "time"

type Signature struct {
	ID         int       `json:"id"`
	ContractID int       `json:"contractId"`
	SignerID   int       `json:"signerId"`
	FilePath   string    `json:"filePath,omitempty"`
	SignedAt   time.Time `json:"signedAt"`
}

// File is a document attached to a sign request, usually the rendered PDF.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// NoFile is sent when the signer did not select or render a file.
// The API accepts it; whether it should is an open product question.
var NoFile = File{Name: "empty.pdf", ContentType: "application/pdf"}

// IsEmpty reports whether f carries no content.
func (f File) IsEmpty() bool {
	return len(f.Data) == 0
}

// SendOTPRequest asks the API to email a one-time password to the signer.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// SignRequest is the payload of the sign write.
type SignRequest struct {
	ContractID int
	SignerID   int
	File       File
	OTP        string
}
