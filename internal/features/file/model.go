package file

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type File struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	OriginalFilename string             `json:"originalFilename" bson:"originalFilename"`
	Location         string             `json:"-" bson:"location"` // disk path or GridFS id
	URL              string             `json:"url" bson:"url"`
	Size             int64              `json:"size" bson:"size"`
	MimeType         string             `json:"mimeType" bson:"mimeType"`
	Kind             string             `json:"kind" bson:"kind"` // upload kind name
	Module           string             `json:"module" bson:"module"`
	RecordID         string             `json:"recordId" bson:"recordId"`
	UploadedBy       primitive.ObjectID `json:"uploadedBy" bson:"uploadedBy"`
	StorageType      string             `json:"storageType" bson:"storageType"` // local or gridfs
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
}

// Public reports whether the file may be downloaded without a token. Only
// images are, so member photos can be embedded directly.
func (f *File) Public() bool {
	return f.Kind == ImageUpload.Name
}

// UploadKind constrains what may be attached to a record.
type UploadKind struct {
	Name       string
	Extensions []string
	MaxSize    int64
}

const mb = 1024 * 1024

var (
	ImageUpload    = UploadKind{Name: "image", Extensions: []string{".jpg", ".jpeg", ".png", ".gif"}, MaxSize: 5 * mb}
	ReceiptUpload  = UploadKind{Name: "receipt", Extensions: []string{".jpg", ".jpeg", ".png", ".pdf"}, MaxSize: 5 * mb}
	DocumentUpload = UploadKind{Name: "document", Extensions: []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}, MaxSize: 10 * mb}
)
