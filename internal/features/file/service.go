package file

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"charity-admin/internal/common/errs"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type FileService interface {
	Upload(ctx context.Context, kind UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*File, error)
	Open(ctx context.Context, id string) (*File, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
	ListByRecord(ctx context.Context, module, recordID string) ([]*File, error)
}

type FileServiceImpl struct {
	Repo    FileRepository
	Storage Storage
	Logger  *zap.Logger
}

func NewFileService(repo FileRepository, storage Storage, logger *zap.Logger) FileService {
	return &FileServiceImpl{
		Repo:    repo,
		Storage: storage,
		Logger:  logger,
	}
}

// ValidateUpload checks the name and size of an incoming file against kind.
func ValidateUpload(kind UploadKind, filename string, size int64) error {
	if filename == "" {
		return errs.Validation("Please upload a file")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range kind.Extensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return errs.Validation(fmt.Sprintf("Invalid %s file type %q, allowed: %s", kind.Name, ext, strings.Join(kind.Extensions, ", ")))
	}
	if size > kind.MaxSize {
		return errs.Validation(fmt.Sprintf("File too large, max %dMB", kind.MaxSize/mb))
	}
	return nil
}

func (s *FileServiceImpl) Upload(ctx context.Context, kind UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*File, error) {
	if fh == nil {
		return nil, errs.Validation("Please upload a file")
	}
	if err := ValidateUpload(kind, fh.Filename, fh.Size); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	storedName := fmt.Sprintf("%s_%s%s", kind.Name, uuid.New().String(), ext)
	location, err := s.Storage.Save(ctx, storedName, src)
	if err != nil {
		return nil, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}

	f := &File{
		ID:               primitive.NewObjectID(),
		OriginalFilename: filepath.Base(fh.Filename),
		Location:         location,
		Size:             fh.Size,
		MimeType:         mimeType,
		Kind:             kind.Name,
		Module:           module,
		RecordID:         recordID,
		UploadedBy:       uploader,
		StorageType:      s.Storage.Kind(),
		CreatedAt:        time.Now(),
	}
	f.URL = "/api/files/" + f.ID.Hex()

	if err := s.Repo.Save(ctx, f); err != nil {
		// Metadata write failed, don't leave an orphaned blob behind.
		if delErr := s.Storage.Delete(ctx, location); delErr != nil {
			s.Logger.Warn("Failed to remove orphaned upload", zap.String("location", location), zap.Error(delErr))
		}
		return nil, err
	}
	return f, nil
}

func (s *FileServiceImpl) Open(ctx context.Context, id string) (*File, io.ReadCloser, error) {
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, nil, errs.NotFound("File not found")
		}
		return nil, nil, err
	}
	rc, err := s.Storage.Open(ctx, f.Location)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrNotFound, "File content not found", err)
	}
	return f, rc, nil
}

// Delete removes the stored bytes and the metadata. Unknown ids are ignored so
// replacing an attachment never fails on a stale reference.
func (s *FileServiceImpl) Delete(ctx context.Context, id string) error {
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil
		}
		return err
	}
	if err := s.Storage.Delete(ctx, f.Location); err != nil {
		s.Logger.Warn("Failed to delete stored file", zap.String("id", id), zap.Error(err))
	}
	return s.Repo.Delete(ctx, id)
}

func (s *FileServiceImpl) ListByRecord(ctx context.Context, module, recordID string) ([]*File, error) {
	return s.Repo.FindByRecord(ctx, module, recordID)
}

// IDFromURL extracts the file id from a URL produced by Upload.
func IDFromURL(url string) string {
	const prefix = "/api/files/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
