package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"charity-admin/internal/config"
	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Storage holds uploaded bytes; metadata lives in the files collection.
type Storage interface {
	Save(ctx context.Context, name string, src io.Reader) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
	Kind() string
}

// NewStorage picks the backend named by UPLOAD_DRIVER.
func NewStorage(cfg *config.Config, mongodb *database.MongodbDB) (Storage, error) {
	switch cfg.UploadDriver {
	case "gridfs":
		bucket, err := gridfs.NewBucket(mongodb.DB, options.GridFSBucket().SetName("uploads"))
		if err != nil {
			return nil, err
		}
		return &GridFSStorage{Bucket: bucket}, nil
	case "local", "":
		if err := os.MkdirAll(cfg.FSPath, 0755); err != nil {
			return nil, err
		}
		return &LocalStorage{Dir: cfg.FSPath}, nil
	}
	return nil, fmt.Errorf("unknown upload driver %q", cfg.UploadDriver)
}

type LocalStorage struct {
	Dir string
}

func (s *LocalStorage) Kind() string { return "local" }

func (s *LocalStorage) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	dstPath := filepath.Join(s.Dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

func (s *LocalStorage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return os.Open(location)
}

func (s *LocalStorage) Delete(ctx context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type GridFSStorage struct {
	Bucket *gridfs.Bucket
}

func (s *GridFSStorage) Kind() string { return "gridfs" }

func (s *GridFSStorage) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	id, err := s.Bucket.UploadFromStream(name, src)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *GridFSStorage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(location)
	if err != nil {
		return nil, err
	}
	return s.Bucket.OpenDownloadStream(id)
}

func (s *GridFSStorage) Delete(ctx context.Context, location string) error {
	id, err := primitive.ObjectIDFromHex(location)
	if err != nil {
		return err
	}
	return s.Bucket.Delete(id)
}
